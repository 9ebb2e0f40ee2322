package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadaudit/pkg/models"
)

func TestDefaultCoversEveryCategory(t *testing.T) {
	c := Default()
	entries := c.Entries()
	require.Len(t, entries, 10)

	for i, key := range models.Categories {
		assert.Equal(t, key, entries[i].Key)
		assert.NotEmpty(t, entries[i].Description, key)
		assert.NotEmpty(t, entries[i].LookFor, key)
		assert.NotEmpty(t, entries[i].Scoring.Pass, key)
	}
}

func TestLabels(t *testing.T) {
	c := Default()
	assert.Equal(t, "Website UX", c.Label(models.CategoryWebsiteUX))
	assert.Equal(t, "GMB Optimization", c.Label(models.CategoryGMBOptimization))
	assert.Equal(t, "Follow-Up System", c.Label(models.CategoryFollowUp))
	assert.Equal(t, "mystery", c.Label("mystery"))
}

func TestParseRejectsIncompleteCatalog(t *testing.T) {
	_, err := Parse([]byte(`
categories:
  - key: website_ux
    label: Website UX
`))
	assert.Error(t, err)
}

func TestParseRejectsWrongOrder(t *testing.T) {
	entries := Default().Entries()
	entries[0], entries[1] = entries[1], entries[0]

	doc := "categories:\n"
	for _, e := range entries {
		doc += "  - key: " + string(e.Key) + "\n    label: x\n"
	}
	_, err := Parse([]byte(doc))
	assert.Error(t, err)
}
