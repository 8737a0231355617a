package generator

var firstNames = []string{
	"John", "Jane", "Bob", "Alice", "Charlie", "Diana", "Edward", "Fiona",
	"George", "Hannah", "Ivan", "Julia", "Kevin", "Laura", "Marcus", "Nina",
}

var lastNames = []string{
	"Smith", "Doe", "Johnson", "Williams", "Brown", "Davis", "Miller", "Wilson",
	"Moore", "Taylor", "Anderson", "Thomas", "Jackson", "White", "Harris", "Clark",
}

var companies = []string{
	"Acme Corp", "Globex Inc", "Initech", "Umbrella Corp", "Stark Industries",
	"Wayne Enterprises", "Cyberdyne Systems", "Tyrell Corp",
}

var emailDomains = []string{"example.com", "test.com", "mock.io", "demo.org"}

var streets = []string{"Main St", "Oak Ave", "Elm St", "Park Blvd", "Cedar Ln", "Maple Dr", "Pine Rd", "Lake Way"}

// cities and states are index-aligned.
var (
	cities = []string{"New York", "Los Angeles", "Chicago", "Houston", "Phoenix", "Seattle", "Denver", "Boston"}
	states = []string{"NY", "CA", "IL", "TX", "AZ", "WA", "CO", "MA"}
)

var countries = []string{
	"United States", "Canada", "Mexico", "Brazil", "United Kingdom", "Germany",
	"France", "Spain", "Italy", "Japan", "Australia", "India",
}

var words = []string{
	"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "theta", "lambda",
	"sigma", "omega", "lorem", "ipsum", "dolor", "amet", "nova", "vertex",
}

var sentences = []string{
	"The quick brown fox jumps over the lazy dog.",
	"Lorem ipsum dolor sit amet.",
	"Every record here was generated for testing.",
	"Shipping is free on orders over fifty dollars.",
	"System status nominal.",
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Mobile/15E148 Safari/604.1",
}

var currencyCodes = []string{
	"USD", "EUR", "GBP", "JPY", "AUD", "CAD", "CHF", "CNY",
	"SEK", "NZD", "MXN", "SGD", "HKD", "NOK", "KRW", "INR",
}

type ibanCountry struct {
	code   string
	length int
	bank   string
}

var ibanCountries = []ibanCountry{
	{"GB", 22, "WEST"},
	{"DE", 22, "DEUT"},
	{"FR", 27, "BNPA"},
	{"ES", 24, "BBVA"},
	{"NL", 18, "ABNA"},
}

var (
	productAdjectives = []string{"Rustic", "Elegant", "Handcrafted", "Sleek", "Practical", "Modern", "Vintage", "Ergonomic"}
	productMaterials  = []string{"Steel", "Wooden", "Granite", "Rubber", "Cotton", "Leather", "Bamboo", "Ceramic"}
	productNouns      = []string{"Chair", "Table", "Lamp", "Keyboard", "Backpack", "Watch", "Wallet", "Mug"}
)

var colors = []string{
	"Crimson", "Azure", "Emerald", "Ivory", "Coral", "Indigo", "Amber", "Jade",
	"Scarlet", "Turquoise", "Lavender", "Teal", "Gold", "Silver",
}

var (
	jobLevels = []string{"Senior", "Junior", "Lead", "Principal", "Staff"}
	jobFields = []string{"Software", "Data", "Product", "Marketing", "Sales", "Operations", "Security"}
	jobRoles  = []string{"Engineer", "Analyst", "Manager", "Designer", "Architect", "Developer", "Specialist"}
)

var mimeTypes = []string{
	"application/json", "application/pdf", "application/zip",
	"text/html", "text/plain", "text/csv",
	"image/png", "image/jpeg", "image/webp", "video/mp4",
}

var fileExtensions = []string{"pdf", "jpg", "png", "csv", "txt", "json", "xml", "zip", "mp4", "md", "yaml"}
