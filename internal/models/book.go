package models

// BookModel is a book record keyed by the id of the external book system.
// CoverData is kept as the string-encoded JSON the editor produced.
type BookModel struct {
	Base
	Title         string `json:"title"`
	Author        string `json:"author"`
	CoverData     string `json:"coverData"     gorm:"type:longtext"`
	FrontImageURL string `json:"frontImageUrl" gorm:"type:varchar(1024)"`
	BackImageURL  string `json:"backImageUrl"  gorm:"type:varchar(1024)"`
}

func (BookModel) TableName() string { return "books" }

// BookUpsert is the body of a book save. Renders, when present, are base64,
// data URL or raw SVG images uploaded before the record is written; their
// hosted URLs replace FrontImageURL and BackImageURL.
type BookUpsert struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	CoverData     string `json:"coverData"`
	FrontImageURL string `json:"frontImageUrl,omitempty"`
	BackImageURL  string `json:"backImageUrl,omitempty"`
	FrontRender   string `json:"frontRender,omitempty"`
	BackRender    string `json:"backRender,omitempty"`
}
