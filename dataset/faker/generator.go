// Package faker generates synthetic restaurant dish records.
package faker

import (
	"context"
	"fmt"
	"strconv"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/viant/vecdemo/schema"
)

const (
	DefaultCount = 1000
	DefaultSeed  = 42
)

// Payload field names.
const (
	FieldRestaurant      = "restaurant"
	FieldEthnicCategory  = "ethnic_category"
	FieldDishDescription = "dish_description"
	FieldDish            = "dish"
	FieldURL             = "url"
	FieldYear            = "year"
	FieldCountry         = "country"
)

// Fields declares the payload of a food collection; country is a keyword so it can be filtered.
var Fields = []schema.Field{
	{Name: FieldRestaurant, Type: schema.FieldText},
	{Name: FieldEthnicCategory, Type: schema.FieldKeyword},
	{Name: FieldDishDescription, Type: schema.FieldText},
	{Name: FieldDish, Type: schema.FieldText},
	{Name: FieldURL, Type: schema.FieldText},
	{Name: FieldYear, Type: schema.FieldKeyword},
	{Name: FieldCountry, Type: schema.FieldKeyword},
}

var ethnicCategories = []string{
	"Vietnamese", "Thai", "Italian", "Mexican", "Indian", "Japanese", "Chinese",
	"Korean", "Greek", "French", "Lebanese", "Ethiopian", "Peruvian", "Spanish",
}

var dishes = []string{
	"Pho", "Banh Mi", "Bun Cha", "Pad Thai", "Green Curry", "Margherita Pizza",
	"Lasagna", "Tacos al Pastor", "Enchiladas", "Butter Chicken", "Biryani",
	"Ramen", "Sushi", "Kung Pao Chicken", "Dumplings", "Bibimbap", "Kimchi Stew",
	"Moussaka", "Souvlaki", "Coq au Vin", "Ratatouille", "Falafel", "Shawarma",
	"Injera with Doro Wat", "Ceviche", "Paella", "Gazpacho",
}

var descriptions = []string{
	"A fragrant broth simmered for hours with star anise, served with rice noodles and fresh herbs.",
	"Crispy on the outside, tender inside, finished with a squeeze of lime and chili.",
	"Slow-cooked in a rich tomato sauce and topped with melted cheese.",
	"Tossed in a hot wok with garlic, ginger and a splash of soy sauce.",
	"A spicy, aromatic dish that brings the heat of fresh bird's eye chilies.",
	"Served chilled with cucumber, mint and a tangy citrus dressing.",
	"Grilled over charcoal and glazed with a sweet and savory marinade.",
	"Layered with seasonal vegetables and baked until golden.",
	"Delicately rolled by hand and steamed to order.",
	"A hearty stew of slow-braised meat, root vegetables and warming spices.",
	"Creamy, mildly spiced curry best enjoyed with warm flatbread.",
	"Light and refreshing, drizzled with olive oil and sprinkled with sea salt.",
}

// Generator produces Count reproducible food records.
type Generator struct {
	Count int
	Seed  uint64
	// Fixtures are appended after the generated records.
	Fixtures []schema.Record
}

// New returns a generator of count records seeded with seed.
func New(count int, seed uint64, fixtures ...schema.Record) *Generator {
	return &Generator{Count: count, Seed: seed, Fixtures: fixtures}
}

// Records generates Count records followed by the fixtures.
func (g *Generator) Records(ctx context.Context) ([]schema.Record, error) {
	if g.Count < 0 {
		return nil, fmt.Errorf("faker: invalid record count %d", g.Count)
	}
	fake := gofakeit.New(g.Seed)
	out := make([]schema.Record, 0, g.Count+len(g.Fixtures))
	for i := 0; i < g.Count; i++ {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		out = append(out, schema.Record{
			FieldRestaurant:      fake.Name(),
			FieldEthnicCategory:  fake.RandomString(ethnicCategories),
			FieldDishDescription: fake.RandomString(descriptions),
			FieldDish:            fake.RandomString(dishes),
			FieldURL:             fake.URL(),
			FieldYear:            strconv.Itoa(fake.Year()),
			FieldCountry:         fake.Country(),
		})
	}
	for _, fixture := range g.Fixtures {
		out = append(out, fixture.Clone())
	}
	return out, nil
}

// Text returns the embedded text of a food record: "<dish> <dish_description>".
func Text(record schema.Record) string {
	return record.String(FieldDish) + " " + record.String(FieldDishDescription)
}
