package generation

import "github.com/unalkalkan/OneClickStudio/internal/provider"

// SalesCopySchema is the structured-output schema for sales copy
var SalesCopySchema = &provider.Schema{
	Type: provider.TypeObject,
	Properties: map[string]*provider.Schema{
		"headline": {Type: provider.TypeString, Description: "High-converting sales headline."},
		"benefits": {Type: provider.TypeArray, Items: &provider.Schema{Type: provider.TypeString}, Description: "List of the 5 main benefits."},
		"cta":      {Type: provider.TypeString, Description: "Strong call to action."},
	},
	Required: []string{"headline", "benefits", "cta"},
}

// ProductSchema is the structured-output schema for a whole product
var ProductSchema = &provider.Schema{
	Type: provider.TypeObject,
	Properties: map[string]*provider.Schema{
		"title":                 {Type: provider.TypeString, Description: "Catchy commercial title for the digital product."},
		"subtitle":              {Type: provider.TypeString, Description: "Compelling subtitle."},
		"description":           {Type: provider.TypeString, Description: "A short paragraph describing the product."},
		"coverImageDescription": {Type: provider.TypeString, Description: "A detailed visual description of a modern, clean cover."},
		"chapters": {
			Type: provider.TypeArray,
			Items: &provider.Schema{
				Type: provider.TypeObject,
				Properties: map[string]*provider.Schema{
					"title":            {Type: provider.TypeString},
					"content":          {Type: provider.TypeString, Description: "Extremely detailed and extensive content for this chapter. At least 1000 words."},
					"imageDescription": {Type: provider.TypeString, Description: "A visual description for an illustration accompanying this chapter."},
				},
				Required: []string{"title", "content", "imageDescription"},
			},
		},
		"salesCopy": SalesCopySchema,
		"socialScripts": {
			Type:        provider.TypeArray,
			Description: "3 short video scripts (TikTok/Reels) to market the product.",
			Items: &provider.Schema{
				Type: provider.TypeObject,
				Properties: map[string]*provider.Schema{
					"platform": {Type: provider.TypeString},
					"script":   {Type: provider.TypeString},
				},
			},
		},
	},
	Required: []string{"title", "subtitle", "description", "chapters", "salesCopy", "socialScripts"},
}
