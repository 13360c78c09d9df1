package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Profile selects the field mapping used to read one delimited file.
type Profile string

const (
	ProfileGeneric    Profile = "generic"
	ProfileSurvey     Profile = "survey"
	ProfileClient     Profile = "client"
	ProfileProduct    Profile = "product"
	ProfileSourceData Profile = "source_data"
)

func ParseProfile(value string) (Profile, error) {
	p := Profile(strings.ToLower(strings.TrimSpace(value)))
	switch p {
	case ProfileGeneric, ProfileSurvey, ProfileClient, ProfileProduct, ProfileSourceData:
		return p, nil
	}
	return "", fmt.Errorf("unknown mapping profile %q", value)
}

// FileSource is one configured delimited file and the profile used to read it.
type FileSource struct {
	Path    string  `json:"path"`
	Profile Profile `json:"profile"`
}

// FieldMapping lists, per Comment field, the column or document keys that may
// carry it. The first alias present in a row wins; matching ignores case.
type FieldMapping struct {
	ID         []string `json:"id,omitempty"`
	ProductID  []string `json:"productId"`
	CustomerID []string `json:"customerId"`
	CreatedAt  []string `json:"createdAt"`
	Text       []string `json:"text"`
	Rating     []string `json:"rating"`
	Source     []string `json:"source"`
	Sentiment  []string `json:"sentiment,omitempty"`

	DefaultSource string `json:"defaultSource"`
	DateFormat    string `json:"dateFormat,omitempty"`
	// RequireDate rejects rows without a creation date instead of stamping
	// them with the import time.
	RequireDate bool `json:"requireDate"`
}

// MappingConfig is the root of a mapping file.
type MappingConfig struct {
	Version  string                   `json:"version"`
	Profiles map[Profile]FieldMapping `json:"profiles"`
}

// DefaultProfiles returns the built-in mapping table. Callers may replace
// entries before handing the table to an extractor.
func DefaultProfiles() map[Profile]FieldMapping {
	return map[Profile]FieldMapping{
		ProfileGeneric: {
			ID:            []string{"Id", "CommentId"},
			ProductID:     []string{"ProductId", "IdProducto"},
			CustomerID:    []string{"CustomerId", "IdCliente"},
			CreatedAt:     []string{"CreatedAt", "Fecha"},
			Text:          []string{"Text", "Comentario", "CommentText"},
			Rating:        []string{"Rating", "Calificacion"},
			Source:        []string{"Source", "Fuente"},
			Sentiment:     []string{"Sentiment", "Sentimiento"},
			DefaultSource: "Generic CSV",
			RequireDate:   true,
		},
		ProfileSurvey: {
			ProductID:     []string{"ProductId", "product_id", "IdProducto", "ProductID"},
			CustomerID:    []string{"CustomerId", "client_id", "IdCliente", "CustomerID"},
			CreatedAt:     []string{"CreatedAt", "fecha", "Fecha", "Date", "Timestamp"},
			Text:          []string{"Text", "comentario", "comment_text", "Comment", "Review"},
			Rating:        []string{"Rating", "calificacion", "puntaje", "Score", "PuntajeSatisfaccion"},
			Source:        []string{"Source", "fuente", "Origen"},
			Sentiment:     []string{"Sentiment", "Sentimiento"},
			DefaultSource: "Survey CSV",
			RequireDate:   true,
		},
		ProfileClient: {
			CustomerID:    []string{"ClientId", "CustomerId", "IdCliente", "CustomerID"},
			Text:          []string{"Comments", "Observaciones", "Notas"},
			Source:        []string{"Source", "fuente"},
			DefaultSource: "Clients CSV",
		},
		ProfileProduct: {
			ProductID:     []string{"ProductId", "IdProducto", "ProductID"},
			Text:          []string{"Description", "Descripcion", "Comments", "Nombre"},
			Rating:        []string{"Rating", "Calificacion"},
			Source:        []string{"Source", "fuente"},
			DefaultSource: "Products CSV",
		},
		ProfileSourceData: {
			ProductID:     []string{"product_id", "ProductId"},
			CustomerID:    []string{"client_id", "CustomerId"},
			CreatedAt:     []string{"fecha", "date", "FechaCarga"},
			Text:          []string{"comment", "texto", "observacion"},
			Rating:        []string{"rating", "score"},
			Source:        []string{"source", "fuente", "TipoFuente"},
			DefaultSource: "Source Data CSV",
		},
	}
}

// LoadMapping parses a mapping file.
func LoadMapping(data []byte) (*MappingConfig, error) {
	var m MappingConfig
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	for p := range m.Profiles {
		if _, err := ParseProfile(string(p)); err != nil {
			return nil, err
		}
	}
	return &m, nil
}
