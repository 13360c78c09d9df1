package models

import "time"

// Star-schema rows of the analytical store. Surrogate keys are generated by
// the store except for DimTime, whose key is derived from the date.

type DimClient struct {
	ClientKey     int
	ClientID      string
	ClientName    string
	Country       string
	Age           *int
	Gender        string
	ClientType    string
	ClientSegment string
	IsActive      bool
}

type DimProduct struct {
	ProductKey  int
	ProductID   string
	ProductName string
	Category    string
	Subcategory string
	Price       float64
	IsActive    bool
	IsCurrent   bool
	EndDate     *time.Time
}

type DimSentiment struct {
	SentimentKey  int
	SentimentID   string
	SentimentName string
	Score         int
	RangeMin      float64
	RangeMax      float64
	ColorCode     string
}

type DimSource struct {
	SourceKey        int
	SourceID         string
	SourceName       string
	SourceType       string
	SourceCategory   string
	ReliabilityScore float64
}

type DimTime struct {
	TimeKey       int
	FullDate      time.Time
	Day           int
	Week          int
	Month         int
	Quarter       int
	Year          int
	DayName       string
	MonthName     string
	QuarterName   string
	IsWeekend     bool
	IsHoliday     bool
	IsBusinessDay bool
}

// FactOpinion is one row of fact_opinions.
type FactOpinion struct {
	ClientKey         int
	ProductKey        int
	TimeKey           int
	SourceKey         int
	SentimentKey      int
	Rating            *float64
	SentimentScore    float64
	CommentText       string
	CommentLength     int
	WordCount         int
	ContainsKeywords  bool
	OriginalCommentID string
	CommentType       string
	ChannelCode       string
	CreatedDate       time.Time
	ETLBatchID        string
}
