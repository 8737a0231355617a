package generator

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// hint names as users write them; the hints map is keyed by hintKey(name).
var hintNames = []string{
	"firstName", "lastName", "name", "username", "email", "phone",
	"address", "street", "city", "state", "country", "zipCode",
	"company", "jobTitle", "word", "sentence", "paragraph", "color",
	"productName", "price", "currencyCode", "creditCard", "iban",
	"ipv4", "ipv6", "macAddress", "userAgent", "url", "mimeType", "fileExtension",
	"ssn", "passport", "age", "rating", "quantity", "latitude", "longitude",
}

var hints = map[string]func(*Generator) any{
	"firstname": func(g *Generator) any { return pick(g, firstNames) },
	"lastname":  func(g *Generator) any { return pick(g, lastNames) },
	"name":      func(g *Generator) any { return pick(g, firstNames) + " " + pick(g, lastNames) },
	"fullname":  func(g *Generator) any { return pick(g, firstNames) + " " + pick(g, lastNames) },
	"username": func(g *Generator) any {
		return strings.ToLower(pick(g, firstNames)) + strconv.Itoa(g.intN(1000))
	},
	"email": func(g *Generator) any { return g.email() },
	"phone": func(g *Generator) any {
		return fmt.Sprintf("+1-%03d-%03d-%04d", g.intN(900)+100, g.intN(900)+100, g.intN(10000))
	},
	"address": func(g *Generator) any {
		i := g.intN(len(cities))
		return fmt.Sprintf("%d %s, %s, %s %05d", g.intN(9999)+1, pick(g, streets), cities[i], states[i], g.intN(99999))
	},
	"street":    func(g *Generator) any { return fmt.Sprintf("%d %s", g.intN(9999)+1, pick(g, streets)) },
	"city":      func(g *Generator) any { return pick(g, cities) },
	"state":     func(g *Generator) any { return pick(g, states) },
	"country":   func(g *Generator) any { return pick(g, countries) },
	"zipcode":   func(g *Generator) any { return fmt.Sprintf("%05d", g.intN(99999)) },
	"company":   func(g *Generator) any { return pick(g, companies) },
	"jobtitle":  func(g *Generator) any { return pick(g, jobLevels) + " " + pick(g, jobFields) + " " + pick(g, jobRoles) },
	"word":      func(g *Generator) any { return pick(g, words) },
	"sentence":  func(g *Generator) any { return pick(g, sentences) },
	"paragraph": func(g *Generator) any { return g.paragraph() },
	"color":     func(g *Generator) any { return pick(g, colors) },
	"productname": func(g *Generator) any {
		return pick(g, productAdjectives) + " " + pick(g, productMaterials) + " " + pick(g, productNouns)
	},
	"price":         func(g *Generator) any { return float64(g.intN(99900)+100) / 100 },
	"currencycode":  func(g *Generator) any { return pick(g, currencyCodes) },
	"creditcard":    func(g *Generator) any { return g.creditCard() },
	"iban":          func(g *Generator) any { return g.iban() },
	"ipv4":          func(g *Generator) any { return g.ipv4() },
	"ipv6":          func(g *Generator) any { return g.ipv6() },
	"macaddress":    func(g *Generator) any { return g.macAddress() },
	"useragent":     func(g *Generator) any { return pick(g, userAgents) },
	"url":           func(g *Generator) any { return "https://" + pick(g, words) + "." + pick(g, emailDomains) },
	"mimetype":      func(g *Generator) any { return pick(g, mimeTypes) },
	"fileextension": func(g *Generator) any { return pick(g, fileExtensions) },
	"ssn": func(g *Generator) any {
		return fmt.Sprintf("%03d-%02d-%04d", g.intN(899)+100, g.intN(99)+1, g.intN(9999)+1)
	},
	"passport":  func(g *Generator) any { return g.passport() },
	"age":       func(g *Generator) any { return float64(18 + g.intN(63)) },
	"rating":    func(g *Generator) any { return float64(1 + g.intN(5)) },
	"quantity":  func(g *Generator) any { return float64(1 + g.intN(100)) },
	"latitude":  func(g *Generator) any { return round(g.float64()*180-90, 6) },
	"longitude": func(g *Generator) any { return round(g.float64()*360-180, 6) },
}

// Hints returns the supported generator hints, sorted.
func Hints() []string {
	out := slices.Clone(hintNames)
	slices.Sort(out)
	return out
}

// KnownHint reports whether hint names a supported generator. Empty is known.
func KnownHint(hint string) bool {
	if strings.TrimSpace(hint) == "" {
		return true
	}
	switch k := hintKey(hint); k {
	case "future", "recent", "birthdate", "avatar":
		return true
	default:
		_, ok := hints[k]
		return ok
	}
}

func (g *Generator) email() string {
	return strings.ToLower(pick(g, firstNames)) + strconv.Itoa(g.intN(1000)) + "@" + pick(g, emailDomains)
}

func (g *Generator) paragraph() string {
	n := 2 + g.intN(3)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = pick(g, sentences)
	}
	return strings.Join(parts, " ")
}

func (g *Generator) ipv4() string {
	return fmt.Sprintf("%d.%d.%d.%d", g.intN(256), g.intN(256), g.intN(256), g.intN(256))
}

func (g *Generator) ipv6() string {
	groups := make([]string, 8)
	for i := range groups {
		groups[i] = fmt.Sprintf("%04x", g.intN(65536))
	}
	return strings.Join(groups, ":")
}

func (g *Generator) macAddress() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X",
		g.intN(256), g.intN(256), g.intN(256), g.intN(256), g.intN(256), g.intN(256))
}

// creditCard returns a Luhn-valid 16 digit number with a Visa prefix.
func (g *Generator) creditCard() string {
	digits := make([]int, 16)
	digits[0] = 4
	for i := 1; i < 15; i++ {
		digits[i] = g.intN(10)
	}

	// Counting from the right, the check digit is position 1, so even
	// indices of a 16 digit number are doubled.
	sum := 0
	for i := range 15 {
		d := digits[i]
		if i%2 == 0 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	digits[15] = (10 - sum%10) % 10

	var sb strings.Builder
	for _, d := range digits {
		sb.WriteByte(byte('0' + d))
	}
	return sb.String()
}

func (g *Generator) iban() string {
	c := ibanCountries[g.intN(len(ibanCountries))]
	var sb strings.Builder
	sb.WriteString(c.code)
	fmt.Fprintf(&sb, "%02d", g.intN(90)+10)
	sb.WriteString(c.bank)
	for range c.length - len(c.code) - 2 - len(c.bank) {
		sb.WriteByte(byte('0' + g.intN(10)))
	}
	return sb.String()
}

func (g *Generator) passport() string {
	var sb strings.Builder
	sb.WriteByte(byte('A' + g.intN(26)))
	sb.WriteByte(byte('A' + g.intN(26)))
	for range 7 {
		sb.WriteByte(byte('0' + g.intN(10)))
	}
	return sb.String()
}

func round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
