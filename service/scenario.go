package service

import (
	"github.com/viant/vecdemo/dataset/faker"
	"github.com/viant/vecdemo/schema"
)

const (
	// FoodCollection is the collection of synthetic dish records.
	FoodCollection = "food_collection"
	// FoodQueryText is the text of the plain search of the food scenario.
	FoodQueryText = "spicy Vietnamese pho"

	// ResumeClass is the class of imported resumes.
	ResumeClass = "Resume"
	// JobDescription is the query of the resume scenario.
	JobDescription = "Seeking a backend engineer familiar with cloud-native architectures, containerization, and CI/CD practices and have knowlegde with bigdata tool."
	// ResumeFile is the default resume dataset.
	ResumeFile = "UpdatedResumeDataSet.csv"

	// DefaultDimension is the output size of all-MiniLM-L6-v2.
	DefaultDimension = 384
)

// ResumeColumns maps the dataset header onto payload fields.
var ResumeColumns = map[string]string{"Category": "category", "Resume": "resume_text"}

// FoodCollectionSchema declares the food collection.
func FoodCollectionSchema(dimension int) schema.Collection {
	return schema.Collection{
		Name:      FoodCollection,
		Dimension: dimension,
		Distance:  schema.DistanceCosine,
		Fields:    faker.Fields,
	}
}

// ResumeCollectionSchema declares the resume class.
func ResumeCollectionSchema(dimension int) schema.Collection {
	return schema.Collection{
		Name:        ResumeClass,
		Description: "Resume class with category and text",
		Dimension:   dimension,
		Distance:    schema.DistanceCosine,
		Fields: []schema.Field{
			{Name: "category", Type: schema.FieldKeyword},
			{Name: "resume_text", Type: schema.FieldText},
		},
	}
}

// FoodQueries returns the illustrative searches and recommendations of the food scenario.
func FoodQueries() []QuerySpec {
	threshold := float32(0.22)
	return []QuerySpec{
		{Name: "search: " + FoodQueryText, Kind: KindSearch, Text: FoodQueryText, Limit: 3},
		{Name: "search: country=Australia", Kind: KindSearch, Text: FoodQueryText, Filter: schema.NewFilter(faker.FieldCountry, "Australia"), Limit: 2},
		{Name: "recommend: positive", Kind: KindRecommend, Positive: []int{0}, Limit: 3},
		{Name: "recommend: positive and negative", Kind: KindRecommend, Positive: []int{0}, Negative: []int{1}, Limit: 3},
		{Name: "recommend: score threshold 0.22", Kind: KindRecommend, Positive: []int{2}, Negative: []int{1, 3}, ScoreThreshold: &threshold, Limit: 3},
		{Name: "recommend: country=Vietnam", Kind: KindRecommend, Positive: []int{0}, Negative: []int{1}, Filter: schema.NewFilter(faker.FieldCountry, "Vietnam"), Limit: 5},
	}
}

// ResumeQueries returns the near-vector search of the resume scenario.
func ResumeQueries(text string) []QuerySpec {
	if text == "" {
		text = JobDescription
	}
	return []QuerySpec{
		{Name: "resumes matching job description", Kind: KindSearch, Text: text, Limit: 10, Fields: []string{"category", "resume_text"}},
	}
}
