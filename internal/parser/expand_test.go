package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/maltedev/parts-fitment-scraper/internal/models"
)

func TestExpandRowsOnePerFitment(t *testing.T) {
	product := models.ProductRecord{
		"Product Title": "Brake Pad Set",
		"SKU":           "12345",
	}
	fitments := []models.FitmentRecord{
		{Year: "2020", Make: "Jeep", Model: "Wrangler", Trim: "Sport", Engine: "3.6L V6"},
		{Year: "2019", Make: "Dodge", Model: "Durango"},
	}

	rows := ExpandRows(product, fitments, nil)
	require.Len(t, rows, 2)

	for _, row := range rows {
		assert.Equal(t, "Brake Pad Set", row["Product Title"])
		assert.Equal(t, "12345", row["SKU"])
	}

	assert.Equal(t, "2020", rows[0]["Year"])
	assert.Equal(t, "Jeep", rows[0]["Make"])
	assert.Equal(t, "Wrangler", rows[0]["Model"])
	assert.Equal(t, "Sport", rows[0]["Body & Trim"])
	assert.Equal(t, "3.6L V6", rows[0]["Engine & Transmission"])

	assert.Equal(t, "2019", rows[1]["Year"])
	assert.Equal(t, "", rows[1]["Body & Trim"])
	assert.Equal(t, "", rows[1]["Engine & Transmission"])
}

func TestExpandRowsPlaceholderWhenNoFitments(t *testing.T) {
	product := models.ProductRecord{"Product Title": "Decal Kit"}

	rows := ExpandRows(product, nil, nil)
	require.Len(t, rows, 1)

	assert.Equal(t, "Decal Kit", rows[0]["Product Title"])
	for _, col := range models.FitmentColumns {
		val, ok := rows[0][col]
		assert.True(t, ok, "fitment column %q should be present", col)
		assert.Equal(t, "", val)
	}
}

func TestExpandRowsPassthroughNeverShadows(t *testing.T) {
	product := models.ProductRecord{"Product Title": "Brake Pad Set"}
	fitments := []models.FitmentRecord{{Year: "2020", Make: "Jeep", Model: "Wrangler"}}
	passthrough := map[string]string{
		"Product Title":           "stale title from input",
		"product-image-link href": "https://example.com/p/1",
	}

	rows := ExpandRows(product, fitments, passthrough)
	require.Len(t, rows, 1)

	assert.Equal(t, "Brake Pad Set", rows[0]["Product Title"])
	assert.Equal(t, "https://example.com/p/1", rows[0]["product-image-link href"])
}

func TestExpandRowsNoAliasingBetweenRows(t *testing.T) {
	product := models.ProductRecord{"Product Title": "Brake Pad Set"}
	fitments := []models.FitmentRecord{
		{Year: "2020", Make: "Jeep", Model: "Wrangler"},
		{Year: "2021", Make: "Jeep", Model: "Wrangler"},
	}

	rows := ExpandRows(product, fitments, nil)
	require.Len(t, rows, 2)

	rows[0]["Product Title"] = "mutated"
	assert.Equal(t, "Brake Pad Set", rows[1]["Product Title"])
	assert.Equal(t, "Brake Pad Set", product["Product Title"])
}
