package synthesis

const (
	PurposeCustomer = "customer"
	PurposeEmployee = "employee"
)

// CatalogSet maps a bot purpose to its candidate question catalog. It is
// passed into the Synthesizer explicitly so arbitrary catalogs can be
// used in tests and per-tenant overrides later.
type CatalogSet map[string][]string

// Questions returns the catalog for purpose, falling back to the
// customer catalog when the purpose is unknown or empty.
func (c CatalogSet) Questions(purpose string) []string {
	if qs, ok := c[purpose]; ok {
		return qs
	}
	return c[PurposeCustomer]
}

// DefaultCatalogs ships the two stock catalogs: one for customer-facing
// bots built from a public website, one for internal employee assistants.
func DefaultCatalogs() CatalogSet {
	return CatalogSet{
		PurposeCustomer: {
			"What products or services do you offer?",
			"What are your opening hours?",
			"Where are you located?",
			"How can I contact you?",
			"What are your prices?",
			"Do you offer discounts or promotions?",
			"How do I place an order?",
			"What payment methods do you accept?",
			"Do you ship internationally?",
			"How long does delivery take?",
			"What is your return policy?",
			"What is your refund policy?",
			"Do you have a warranty on your products?",
			"How do I book an appointment?",
			"Can I cancel or reschedule my appointment?",
			"Do you offer customer support?",
			"What languages do you support?",
			"Is there a minimum order amount?",
			"Do you have a physical store?",
			"Do you offer gift cards?",
			"How do I track my order?",
			"What makes you different from competitors?",
			"Do you work with businesses?",
			"How long have you been in business?",
			"Do you have customer reviews or testimonials?",
		},
		PurposeEmployee: {
			"How do I request vacation days?",
			"What is the sick leave policy?",
			"How do I submit an expense report?",
			"Who do I contact for IT support?",
			"What are the office working hours?",
			"What is the remote work policy?",
			"How do I access the employee handbook?",
			"What benefits does the company offer?",
			"How does the payroll schedule work?",
			"How do I update my personal information?",
			"What is the onboarding process for new hires?",
			"How do I book a meeting room?",
			"What is the dress code?",
			"How do I report a workplace issue?",
			"What training programs are available?",
			"How does the performance review process work?",
			"What is the parental leave policy?",
			"How do I refer a candidate?",
			"What equipment can I request?",
			"Who approves overtime?",
		},
	}
}
