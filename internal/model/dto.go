package model

import "encoding/json"

/*
JSON serialization for ProcessingResult and its nested types. Kept as a
separate DTO layer rather than json tags on the unexported-field types
themselves, matching the configDTO / robots cachedResult pattern used elsewhere:
internal fields stay unexported and getter-accessed, while a dedicated
exported shape handles the wire format.
*/

type scrapingErrorDTO struct {
	Type       ErrorType `json:"type"`
	Code       string    `json:"code"`
	Message    string    `json:"message"`
	URL        string    `json:"url"`
	StatusCode *int      `json:"statusCode,omitempty"`
	Retryable  bool      `json:"retryable"`
}

func (e ScrapingError) toDTO() scrapingErrorDTO {
	dto := scrapingErrorDTO{
		Type:      e.errType,
		Code:      e.code,
		Message:   e.message,
		URL:       e.url,
		Retryable: e.retryable,
	}
	if e.hasStatus {
		sc := e.statusCode
		dto.StatusCode = &sc
	}
	return dto
}

func (e ScrapingError) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.toDTO())
}

type processingResultDTO struct {
	Success        bool            `json:"success"`
	Data           *CourseBasicInfo `json:"data,omitempty"`
	Contact        ContactInfo     `json:"contact"`
	Images         ImageSet        `json:"images"`
	Errors         []ScrapingError `json:"errors"`
	Warnings       []string        `json:"warnings"`
	ProcessingTime int64           `json:"processingTimeMs"`
	Confidence     int             `json:"confidence"`
	Source         string          `json:"source"`
	Metadata       ResultMetadata  `json:"metadata"`
}

func (r ProcessingResult) MarshalJSON() ([]byte, error) {
	dto := processingResultDTO{
		Success:        r.success,
		Data:           r.data,
		Contact:        r.contact,
		Images:         r.images,
		Errors:         r.errors,
		Warnings:       r.warnings,
		ProcessingTime: r.processingTime.Milliseconds(),
		Confidence:     r.confidence,
		Source:         r.source,
		Metadata:       r.metadata,
	}
	if dto.Errors == nil {
		dto.Errors = []ScrapingError{}
	}
	if dto.Warnings == nil {
		dto.Warnings = []string{}
	}
	return json.Marshal(dto)
}
