package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// BackgroundType selects which front fill is rendered.
type BackgroundType string

const (
	BackgroundColor    BackgroundType = "Color"
	BackgroundImage    BackgroundType = "Image"
	BackgroundGradient BackgroundType = "Gradient"
	BackgroundTemplate BackgroundType = "Template"
)

func (b BackgroundType) Valid() bool {
	switch b {
	case BackgroundColor, BackgroundImage, BackgroundGradient, BackgroundTemplate:
		return true
	}
	return false
}

type Align string

const (
	AlignLeft    Align = "left"
	AlignCenter  Align = "center"
	AlignRight   Align = "right"
	AlignJustify Align = "justify"
)

func (a Align) Valid() bool {
	switch a {
	case AlignLeft, AlignCenter, AlignRight, AlignJustify:
		return true
	}
	return false
}

// DefaultFont means "use the surface default font".
const DefaultFont = "Default"

// Fonts is the fixed list of selectable font families.
var Fonts = []string{
	DefaultFont,
	"Roboto",
	"Open Sans",
	"Lato",
	"Montserrat",
	"Oswald",
	"Raleway",
	"Poppins",
	"Merriweather",
	"Playfair Display",
	"Lora",
	"Bebas Neue",
	"Dancing Script",
	"Pacifico",
}

// ValidFont reports whether name is in Fonts. The empty string counts as Default.
func ValidFont(name string) bool {
	if name == "" {
		return true
	}
	for _, f := range Fonts {
		if f == name {
			return true
		}
	}
	return false
}

// Position is a canvas-local offset in pixels from the top-left of the surface frame.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// TextBlock is styled text without placement.
type TextBlock struct {
	Content    string  `json:"content"    bson:"content"`
	Size       float64 `json:"size"       bson:"size"`
	Color      string  `json:"color"      bson:"color"`
	Font       string  `json:"font"       bson:"font"`
	Bold       bool    `json:"bold"       bson:"bold"`
	Italic     bool    `json:"italic"     bson:"italic"`
	Underline  bool    `json:"underline"  bson:"underline"`
	Align      Align   `json:"align"      bson:"align"`
	LineHeight float64 `json:"lineHeight" bson:"lineHeight"`
}

// TextElement is a draggable text block on the front cover.
type TextElement struct {
	TextBlock `bson:",inline"`
	Position  Position `json:"position" bson:"position"`
}

type ColorFill struct {
	ColorCode string `json:"colorCode" bson:"colorCode"`
}

type Gradient struct {
	From      string  `json:"from"      bson:"from"`
	To        string  `json:"to"        bson:"to"`
	Direction float64 `json:"direction" bson:"direction"`
}

type ImageFill struct {
	ImageURL       string  `json:"imageUrl"       bson:"imageUrl"`
	OverlayColor   string  `json:"overlayColor"   bson:"overlayColor"`
	OverlayOpacity float64 `json:"overlayOpacity" bson:"overlayOpacity"`
}

type FrontText struct {
	Title      TextElement `json:"title"      bson:"title"`
	SubTitle   TextElement `json:"subTitle"   bson:"subTitle"`
	AuthorName TextElement `json:"authorName" bson:"authorName"`
}

type Front struct {
	BackgroundType BackgroundType `json:"backgroundType" bson:"backgroundType"`
	Color          ColorFill      `json:"color"          bson:"color"`
	Gradient       Gradient       `json:"gradient"       bson:"gradient"`
	Image          ImageFill      `json:"image"          bson:"image"`
	Template       string         `json:"template"       bson:"template"`
	Text           FrontText      `json:"text"           bson:"text"`
}

type AuthorBlock struct {
	TextBlock `bson:",inline"`
	Title     string `json:"title"    bson:"title"`
	ImageURL  string `json:"imageUrl" bson:"imageUrl"`
}

type Back struct {
	Color       ColorFill   `json:"color"       bson:"color"`
	Description TextBlock   `json:"description" bson:"description"`
	Author      AuthorBlock `json:"author"      bson:"author"`
}

type Spine struct {
	Color ColorFill `json:"color" bson:"color"`
}

// EditEvent is one entry of the edit trace. The trace is reserved and kept empty.
type EditEvent struct {
	Field string    `json:"field" bson:"field"`
	At    time.Time `json:"at"    bson:"at"`
}

// CoverData is everything needed to draw one cover.
type CoverData struct {
	Front      Front       `json:"front"      bson:"front"`
	Back       Back        `json:"back"       bson:"back"`
	Spine      Spine       `json:"spine"      bson:"spine"`
	EditTrace  []EditEvent `json:"editTrace"  bson:"editTrace"`
	LastEdited time.Time   `json:"lastEdited" bson:"lastEdited"`
}

// Clone returns a deep copy of c.
func (c CoverData) Clone() CoverData {
	out := c
	if c.EditTrace != nil {
		out.EditTrace = make([]EditEvent, len(c.EditTrace))
		copy(out.EditTrace, c.EditTrace)
	}
	return out
}

// Elements returns the three front text elements keyed by their field name.
func (f *FrontText) Elements() map[string]*TextElement {
	return map[string]*TextElement{
		"title":      &f.Title,
		"subTitle":   &f.SubTitle,
		"authorName": &f.AuthorName,
	}
}

// ErrInvalidCover wraps every CoverData validation failure.
var ErrInvalidCover = errors.New("invalid cover data")

// Validate checks enumerations and numeric ranges.
func (c *CoverData) Validate() error {
	if c.Front.BackgroundType != "" && !c.Front.BackgroundType.Valid() {
		return fmt.Errorf("%w: unknown front.backgroundType %q", ErrInvalidCover, c.Front.BackgroundType)
	}
	if d := c.Front.Gradient.Direction; math.IsNaN(d) || d < 0 || d >= 360 {
		return fmt.Errorf("%w: front.gradient.direction %v out of [0,360)", ErrInvalidCover, d)
	}
	if o := c.Front.Image.OverlayOpacity; math.IsNaN(o) || o < 0 || o > 1 {
		return fmt.Errorf("%w: front.image.overlayOpacity %v out of [0,1]", ErrInvalidCover, o)
	}
	for name, el := range c.Front.Text.Elements() {
		if err := el.TextBlock.validate("front.text." + name); err != nil {
			return err
		}
		if !finite(el.Position.X) || !finite(el.Position.Y) {
			return fmt.Errorf("%w: front.text.%s.position must be finite", ErrInvalidCover, name)
		}
	}
	if err := c.Back.Description.validate("back.description"); err != nil {
		return err
	}
	return c.Back.Author.TextBlock.validate("back.author")
}

func (b *TextBlock) validate(path string) error {
	if b.Align != "" && !b.Align.Valid() {
		return fmt.Errorf("%w: %s.align %q", ErrInvalidCover, path, b.Align)
	}
	if !ValidFont(b.Font) {
		return fmt.Errorf("%w: %s.font %q is not available", ErrInvalidCover, path, b.Font)
	}
	if !finite(b.Size) || b.Size < 0 {
		return fmt.Errorf("%w: %s.size %v", ErrInvalidCover, path, b.Size)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
