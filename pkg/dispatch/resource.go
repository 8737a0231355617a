package dispatch

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/getmockd/mockapi/internal/id"
	"github.com/getmockd/mockapi/internal/matching"
	"github.com/getmockd/mockapi/pkg/catalog"
	"github.com/getmockd/mockapi/pkg/httputil"
	"github.com/getmockd/mockapi/pkg/query"
	"github.com/getmockd/mockapi/pkg/record"
	"github.com/getmockd/mockapi/pkg/store"
)

// undefinedSegment is what browser clients send for an unset id variable.
const undefinedSegment = "undefined"

// serveResource handles the generic endpoints of one resource.
func (h *Handler) serveResource(w http.ResponseWriter, r *http.Request, def *catalog.ResourceDefinition, segments []string) int {
	name := def.Name
	itemID := ""
	if len(segments) > 1 {
		if seg := matching.Unescape(segments[1]); seg != undefinedSegment {
			itemID = seg
		}
	}

	if r.Method != http.MethodGet && h.locks != nil {
		unlock := h.locks.Lock(name)
		defer unlock()
	}

	records, err := h.records.GetRecords(r.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		return h.writeError(w, r, &NoDataError{Resource: name})
	}
	if err != nil {
		return h.internalError(w, r, fmt.Errorf("load %s: %w", name, err))
	}

	if itemID != "" {
		switch r.Method {
		case http.MethodGet:
			return h.getItem(w, r, name, records, itemID)
		case http.MethodPut, http.MethodPatch:
			return h.updateItem(w, r, name, records, itemID)
		case http.MethodDelete:
			return h.deleteItem(w, r, name, records, itemID)
		}
	} else {
		switch r.Method {
		case http.MethodGet:
			return h.list(w, r, name, records)
		case http.MethodPost:
			return h.create(w, r, name, records)
		}
	}

	httputil.WriteError(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
	return http.StatusMethodNotAllowed
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, name string, records []*record.Record) int {
	params := query.ParseParams(r.URL.Query())
	result, err := query.Run(r.Context(), h.records, name, records, params)
	if err != nil {
		return h.internalError(w, r, fmt.Errorf("query %s: %w", name, err))
	}
	httputil.WriteOK(w, result)
	return http.StatusOK
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, name string, records []*record.Record) int {
	body, err := h.readObject(w, r)
	if err != nil {
		return h.writeError(w, r, err)
	}

	item := record.New()
	item.Set(record.FieldID, id.UUID())
	body.Range(func(k string, v any) bool {
		if k != record.FieldID && k != record.FieldCreatedAt {
			item.Set(k, v)
		}
		return true
	})
	item.Set(record.FieldCreatedAt, record.Timestamp(h.now()))

	if err := h.records.PutRecords(r.Context(), name, append(records, item)); err != nil {
		return h.internalError(w, r, fmt.Errorf("store %s: %w", name, err))
	}
	h.log.Debug("record created", "resource", name, "id", item.ID())
	httputil.WriteCreated(w, item)
	return http.StatusCreated
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request, name string, records []*record.Record, itemID string) int {
	i := indexOf(records, itemID)
	if i < 0 {
		return h.writeError(w, r, &NotFoundError{Resource: name, ID: itemID})
	}
	httputil.WriteOK(w, records[i])
	return http.StatusOK
}

// updateItem serves PUT and PATCH alike: a shallow merge over the stored item.
// The item keeps its id.
func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request, name string, records []*record.Record, itemID string) int {
	i := indexOf(records, itemID)
	if i < 0 {
		return h.writeError(w, r, &NotFoundError{Resource: name, ID: itemID})
	}

	body, err := h.readObject(w, r)
	if err != nil {
		return h.writeError(w, r, err)
	}
	body.Delete(record.FieldID)

	item := records[i]
	item.Merge(body)
	if err := h.records.PutRecords(r.Context(), name, records); err != nil {
		return h.internalError(w, r, fmt.Errorf("store %s: %w", name, err))
	}
	httputil.WriteOK(w, item)
	return http.StatusOK
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request, name string, records []*record.Record, itemID string) int {
	i := indexOf(records, itemID)
	if i < 0 {
		return h.writeError(w, r, &NotFoundError{Resource: name, ID: itemID})
	}

	kept := make([]*record.Record, 0, len(records)-1)
	kept = append(kept, records[:i]...)
	kept = append(kept, records[i+1:]...)
	if err := h.records.PutRecords(r.Context(), name, kept); err != nil {
		return h.internalError(w, r, fmt.Errorf("store %s: %w", name, err))
	}
	httputil.WriteOK(w, map[string]bool{"success": true})
	return http.StatusOK
}

// readObject reads a JSON object body. An empty body is an empty object.
func (h *Handler) readObject(w http.ResponseWriter, r *http.Request) (*record.Record, error) {
	data, err := h.readBody(w, r)
	if err != nil {
		return nil, &BodyError{Err: err}
	}
	obj := record.New()
	if len(bytes.TrimSpace(data)) == 0 {
		return obj, nil
	}
	if err := obj.UnmarshalJSON(data); err != nil {
		return nil, &BodyError{Err: err}
	}
	return obj, nil
}

// indexOf finds an item by linear scan, comparing ids in rendered form.
func indexOf(records []*record.Record, itemID string) int {
	for i, rec := range records {
		if rec != nil && rec.ID() == itemID {
			return i
		}
	}
	return -1
}
