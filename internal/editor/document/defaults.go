package document

import (
	"time"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/models"
)

// Placeholder content shown until the author types over it.
const (
	PlaceholderTitle    = "Your Book Title"
	PlaceholderSubTitle = "A short subtitle"
	PlaceholderAuthor   = "Author Name"
)

// DefaultTemplateID is the id of the in-memory fallback template.
const DefaultTemplateID = "template-default"

// DefaultTemplate is the skeleton used when nothing could be loaded.
// Positions are pixels in the 487x782 frame.
func DefaultTemplate(now time.Time) models.Template {
	heading := func(content string, size float64, y float64) models.TextElement {
		return models.TextElement{
			TextBlock: models.TextBlock{
				Content:    content,
				Size:       size,
				Color:      "#ffffff",
				Font:       models.DefaultFont,
				Align:      models.AlignCenter,
				LineHeight: 1.2,
			},
			Position: models.Position{X: 43.5, Y: y},
		}
	}

	return models.Template{
		ID:   DefaultTemplateID,
		Name: "Default",
		CoverData: models.CoverData{
			Front: models.Front{
				BackgroundType: models.BackgroundColor,
				Color:          models.ColorFill{ColorCode: "#1f2937"},
				Gradient:       models.Gradient{From: "#1f2937", To: "#4b5563", Direction: 180},
				Image:          models.ImageFill{OverlayColor: "#000000", OverlayOpacity: 0.3},
				Text: models.FrontText{
					Title:      heading(PlaceholderTitle, 36, 160),
					SubTitle:   heading(PlaceholderSubTitle, 20, 260),
					AuthorName: heading(PlaceholderAuthor, 18, 680),
				},
			},
			Back: models.Back{
				Color: models.ColorFill{ColorCode: "#1f2937"},
				Description: models.TextBlock{
					Size: 14, Color: "#ffffff", Font: models.DefaultFont, Align: models.AlignJustify, LineHeight: 1.5,
				},
				Author: models.AuthorBlock{
					TextBlock: models.TextBlock{
						Size: 12, Color: "#ffffff", Font: models.DefaultFont, Align: models.AlignLeft, LineHeight: 1.4,
					},
					Title: "About the author",
				},
			},
			Spine:      models.Spine{Color: models.ColorFill{ColorCode: "#111827"}},
			EditTrace:  []models.EditEvent{},
			LastEdited: now,
		},
	}
}
