package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/models"
)

// Field names one editable leaf of CoverData, spelled as its dotted JSON path.
// Every Field has exactly one setter; there is no dynamic traversal.
type Field string

// TextSlot is one of the three draggable front text elements.
type TextSlot string

const (
	SlotTitle      TextSlot = "title"
	SlotSubTitle   TextSlot = "subTitle"
	SlotAuthorName TextSlot = "authorName"
)

// Slots lists the draggable text elements in render order.
var Slots = []TextSlot{SlotTitle, SlotSubTitle, SlotAuthorName}

const (
	FrontBackgroundType    Field = "front.backgroundType"
	FrontColor             Field = "front.color.colorCode"
	FrontGradientFrom      Field = "front.gradient.from"
	FrontGradientTo        Field = "front.gradient.to"
	FrontGradientDirection Field = "front.gradient.direction"
	FrontImageURL          Field = "front.image.imageUrl"
	FrontOverlayColor      Field = "front.image.overlayColor"
	FrontOverlayOpacity    Field = "front.image.overlayOpacity"
	FrontTemplate          Field = "front.template"
	BackColor              Field = "back.color.colorCode"
	BackAuthorTitle        Field = "back.author.title"
	BackAuthorImageURL     Field = "back.author.imageUrl"
	SpineColor             Field = "spine.color.colorCode"
)

// TextField returns the field addressing attr ("content", "position", ...) of a front text element.
func TextField(slot TextSlot, attr string) Field {
	return Field("front.text." + string(slot) + "." + attr)
}

// PositionField is the commit target of a drag controller.
func PositionField(slot TextSlot) Field {
	return TextField(slot, "position")
}

var (
	TitlePosition      = PositionField(SlotTitle)
	SubTitlePosition   = PositionField(SlotSubTitle)
	AuthorNamePosition = PositionField(SlotAuthorName)
	TitleContent       = TextField(SlotTitle, "content")
	AuthorNameContent  = TextField(SlotAuthorName, "content")
)

var (
	// ErrMissingField is returned for a path that does not name an editable field.
	ErrMissingField = errors.New("missing field")
	// ErrFieldType is returned when a value cannot be assigned to the field.
	ErrFieldType = errors.New("field type mismatch")
)

type setter func(c *models.CoverData, v any) error

var setters = buildSetters()

// ParseField resolves a path such as ["front","text","title","position"].
func ParseField(path []string) (Field, error) {
	if len(path) == 0 {
		return "", fmt.Errorf("%w: empty path", ErrMissingField)
	}
	f := Field(strings.Join(path, "."))
	if _, ok := setters[f]; !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingField, f)
	}
	return f, nil
}

// Fields returns every editable field, sorted.
func Fields() []Field {
	out := make([]Field, 0, len(setters))
	for f := range setters {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Apply assigns value to field on c.
func Apply(c *models.CoverData, field Field, value any) error {
	set, ok := setters[field]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	if err := set(c, value); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

func buildSetters() map[Field]setter {
	m := map[Field]setter{
		FrontBackgroundType: func(c *models.CoverData, v any) error {
			s, err := asString(v)
			if err != nil {
				return err
			}
			bt := models.BackgroundType(s)
			if !bt.Valid() {
				return fmt.Errorf("%w: unknown background type %q", ErrFieldType, s)
			}
			c.Front.BackgroundType = bt
			return nil
		},
		FrontColor:             stringSetter(func(c *models.CoverData) *string { return &c.Front.Color.ColorCode }),
		FrontGradientFrom:      stringSetter(func(c *models.CoverData) *string { return &c.Front.Gradient.From }),
		FrontGradientTo:        stringSetter(func(c *models.CoverData) *string { return &c.Front.Gradient.To }),
		FrontGradientDirection: floatSetter(func(c *models.CoverData) *float64 { return &c.Front.Gradient.Direction }, inRange(0, 360, false)),
		FrontImageURL:          stringSetter(func(c *models.CoverData) *string { return &c.Front.Image.ImageURL }),
		FrontOverlayColor:      stringSetter(func(c *models.CoverData) *string { return &c.Front.Image.OverlayColor }),
		FrontOverlayOpacity:    floatSetter(func(c *models.CoverData) *float64 { return &c.Front.Image.OverlayOpacity }, inRange(0, 1, true)),
		FrontTemplate:          stringSetter(func(c *models.CoverData) *string { return &c.Front.Template }),
		BackColor:              stringSetter(func(c *models.CoverData) *string { return &c.Back.Color.ColorCode }),
		BackAuthorTitle:        stringSetter(func(c *models.CoverData) *string { return &c.Back.Author.Title }),
		BackAuthorImageURL:     stringSetter(func(c *models.CoverData) *string { return &c.Back.Author.ImageURL }),
		SpineColor:             stringSetter(func(c *models.CoverData) *string { return &c.Spine.Color.ColorCode }),
	}

	for _, slot := range Slots {
		el := elementOf(slot)
		addBlockSetters(m, "front.text."+string(slot), func(c *models.CoverData) *models.TextBlock { return &el(c).TextBlock })
		m[PositionField(slot)] = func(c *models.CoverData, v any) error {
			p, err := asPosition(v)
			if err != nil {
				return err
			}
			el(c).Position = p
			return nil
		}
		m[TextField(slot, "position.x")] = floatSetter(func(c *models.CoverData) *float64 { return &el(c).Position.X }, nil)
		m[TextField(slot, "position.y")] = floatSetter(func(c *models.CoverData) *float64 { return &el(c).Position.Y }, nil)
	}
	addBlockSetters(m, "back.description", func(c *models.CoverData) *models.TextBlock { return &c.Back.Description })
	addBlockSetters(m, "back.author", func(c *models.CoverData) *models.TextBlock { return &c.Back.Author.TextBlock })
	return m
}

func elementOf(slot TextSlot) func(*models.CoverData) *models.TextElement {
	switch slot {
	case SlotSubTitle:
		return func(c *models.CoverData) *models.TextElement { return &c.Front.Text.SubTitle }
	case SlotAuthorName:
		return func(c *models.CoverData) *models.TextElement { return &c.Front.Text.AuthorName }
	default:
		return func(c *models.CoverData) *models.TextElement { return &c.Front.Text.Title }
	}
}

func addBlockSetters(m map[Field]setter, prefix string, block func(*models.CoverData) *models.TextBlock) {
	f := func(attr string) Field { return Field(prefix + "." + attr) }
	m[f("content")] = stringSetter(func(c *models.CoverData) *string { return &block(c).Content })
	m[f("color")] = stringSetter(func(c *models.CoverData) *string { return &block(c).Color })
	m[f("size")] = floatSetter(func(c *models.CoverData) *float64 { return &block(c).Size }, inRange(0, 1000, true))
	m[f("lineHeight")] = floatSetter(func(c *models.CoverData) *float64 { return &block(c).LineHeight }, inRange(0, 100, true))
	m[f("bold")] = boolSetter(func(c *models.CoverData) *bool { return &block(c).Bold })
	m[f("italic")] = boolSetter(func(c *models.CoverData) *bool { return &block(c).Italic })
	m[f("underline")] = boolSetter(func(c *models.CoverData) *bool { return &block(c).Underline })
	m[f("font")] = func(c *models.CoverData, v any) error {
		s, err := asString(v)
		if err != nil {
			return err
		}
		if !models.ValidFont(s) {
			return fmt.Errorf("%w: font %q is not available", ErrFieldType, s)
		}
		block(c).Font = s
		return nil
	}
	m[f("align")] = func(c *models.CoverData, v any) error {
		s, err := asString(v)
		if err != nil {
			return err
		}
		a := models.Align(s)
		if !a.Valid() {
			return fmt.Errorf("%w: unknown alignment %q", ErrFieldType, s)
		}
		block(c).Align = a
		return nil
	}
}

func stringSetter(target func(*models.CoverData) *string) setter {
	return func(c *models.CoverData, v any) error {
		s, err := asString(v)
		if err != nil {
			return err
		}
		*target(c) = s
		return nil
	}
}

func boolSetter(target func(*models.CoverData) *bool) setter {
	return func(c *models.CoverData, v any) error {
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("%w: want bool, got %T", ErrFieldType, v)
		}
		*target(c) = b
		return nil
	}
}

func floatSetter(target func(*models.CoverData) *float64, check func(float64) error) setter {
	return func(c *models.CoverData, v any) error {
		f, err := asFloat(v)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(f); err != nil {
				return err
			}
		}
		*target(c) = f
		return nil
	}
}

func inRange(lo, hi float64, inclusive bool) func(float64) error {
	return func(f float64) error {
		if f < lo || f > hi || (!inclusive && f == hi) {
			return fmt.Errorf("%w: %v out of range", ErrFieldType, f)
		}
		return nil
	}
}

func asString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: want string, got %T", ErrFieldType, v)
	}
	return s, nil
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	}
	return 0, fmt.Errorf("%w: want number, got %T", ErrFieldType, v)
}

// asPosition accepts a models.Position or a decoded JSON object {x, y}.
func asPosition(v any) (models.Position, error) {
	switch p := v.(type) {
	case models.Position:
		return p, nil
	case *models.Position:
		if p == nil {
			break
		}
		return *p, nil
	case map[string]any:
		x, errX := asFloat(p["x"])
		y, errY := asFloat(p["y"])
		if errX != nil || errY != nil {
			return models.Position{}, fmt.Errorf("%w: position needs numeric x and y", ErrFieldType)
		}
		return models.Position{X: x, Y: y}, nil
	}
	return models.Position{}, fmt.Errorf("%w: want position, got %T", ErrFieldType, v)
}
