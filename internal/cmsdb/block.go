package cmsdb

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// BlockType tags the payload of a [ContentBlock].
type BlockType string

// Block types.
const (
	BlockHeading     BlockType = "heading"
	BlockParagraph   BlockType = "paragraph"
	BlockImage       BlockType = "image"
	BlockButton      BlockType = "button"
	BlockList        BlockType = "list"
	BlockCards       BlockType = "cards"
	BlockHero        BlockType = "hero"
	BlockCTA         BlockType = "cta"
	BlockColumns     BlockType = "columns"
	BlockTestimonial BlockType = "testimonial"
)

// Valid reports whether t is a known block type.
func (t BlockType) Valid() bool {
	switch t {
	case BlockHeading, BlockParagraph, BlockImage, BlockButton, BlockList,
		BlockCards, BlockHero, BlockCTA, BlockColumns, BlockTestimonial:
		return true
	default:
		return false
	}
}

// ContentBlock is one renderable unit of a page. Blocks render in slice
// order. Content holds the type-specific payload; use [ContentBlock.Decode]
// to get it typed.
type ContentBlock struct {
	ID      string          `json:"id"`
	Type    BlockType       `json:"type"`
	Content json.RawMessage `json:"content"`
	Styles  *BlockStyles    `json:"styles,omitempty"`
}

// UnmarshalJSON keeps Content in compact form regardless of how the file
// was indented.
func (b *ContentBlock) UnmarshalJSON(data []byte) error {
	type plain ContentBlock

	var p plain

	err := json.Unmarshal(data, &p)
	if err != nil {
		return err
	}

	if len(p.Content) > 0 {
		var buf bytes.Buffer

		err = json.Compact(&buf, p.Content)
		if err != nil {
			return err
		}

		p.Content = buf.Bytes()
	}

	*b = ContentBlock(p)

	return nil
}

// BlockStyles are optional presentation hints.
type BlockStyles struct {
	Alignment    string `json:"alignment,omitempty"` // left, center, right
	HeadingLevel int    `json:"headingLevel,omitempty"`
	Columns      int    `json:"columns,omitempty"`
}

type HeadingContent struct {
	Text string `json:"text"`
}

type ParagraphContent struct {
	Text string `json:"text"`
}

type ImageContent struct {
	URL     string `json:"url"`
	Alt     string `json:"alt,omitempty"`
	Caption string `json:"caption,omitempty"`
}

type ButtonContent struct {
	Text    string `json:"text"`
	Link    string `json:"link"`
	Variant string `json:"variant,omitempty"`
}

type ListContent struct {
	Items   []string `json:"items"`
	Ordered bool     `json:"ordered,omitempty"`
}

type Card struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Link        string `json:"link,omitempty"`
}

type CardsContent struct {
	Cards []Card `json:"cards"`
}

type HeroContent struct {
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle,omitempty"`
	BackgroundImage string `json:"backgroundImage,omitempty"`
	ButtonText      string `json:"buttonText,omitempty"`
	ButtonLink      string `json:"buttonLink,omitempty"`
}

type CTAContent struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ButtonText  string `json:"buttonText,omitempty"`
	ButtonLink  string `json:"buttonLink,omitempty"`
}

type Column struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

type ColumnsContent struct {
	Columns []Column `json:"columns"`
}

type TestimonialContent struct {
	Quote   string `json:"quote"`
	Author  string `json:"author"`
	Role    string `json:"role,omitempty"`
	Company string `json:"company,omitempty"`
	Avatar  string `json:"avatar,omitempty"`
}

func newBlockContent(t BlockType) (any, error) {
	switch t {
	case BlockHeading:
		return &HeadingContent{}, nil
	case BlockParagraph:
		return &ParagraphContent{}, nil
	case BlockImage:
		return &ImageContent{}, nil
	case BlockButton:
		return &ButtonContent{}, nil
	case BlockList:
		return &ListContent{}, nil
	case BlockCards:
		return &CardsContent{}, nil
	case BlockHero:
		return &HeroContent{}, nil
	case BlockCTA:
		return &CTAContent{}, nil
	case BlockColumns:
		return &ColumnsContent{}, nil
	case BlockTestimonial:
		return &TestimonialContent{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown block type %q", ErrValidation, t)
	}
}

// Decode returns a pointer to the typed payload for b.Type, e.g.
// *HeadingContent for [BlockHeading].
func (b ContentBlock) Decode() (any, error) {
	v, err := newBlockContent(b.Type)
	if err != nil {
		return nil, err
	}

	if len(b.Content) == 0 {
		return v, nil
	}

	err = json.Unmarshal(b.Content, v)
	if err != nil {
		return nil, fmt.Errorf("%w: block %s (%s): %w", ErrValidation, b.ID, b.Type, err)
	}

	return v, nil
}

// NewBlock builds a block of type t carrying payload. The id is generated.
func NewBlock(t BlockType, payload any, styles *BlockStyles) (ContentBlock, error) {
	if !t.Valid() {
		return ContentBlock{}, fmt.Errorf("%w: unknown block type %q", ErrValidation, t)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return ContentBlock{}, fmt.Errorf("%w: block content: %w", ErrValidation, err)
	}

	id, err := newID()
	if err != nil {
		return ContentBlock{}, err
	}

	return ContentBlock{ID: id, Type: t, Content: raw, Styles: styles}, nil
}
