package dto

import (
	"fmt"
	"strings"

	"github.com/alessandronigro/corsi-backoffice/internal/domain/entity"
)

type ImportSheetRequest struct {
	// Convenzione and Corso arrive pipe-delimited from the spreadsheet
	// uploader: "name|host|database" and "code|displayName".
	Convenzione string     `json:"convenzione"`
	Corso       string     `json:"corso"`
	Rows        [][]string `json:"rows"`
	SendEmail   bool       `json:"sendEmail"`
}

type ImportSheetResponse struct {
	BatchID  string           `json:"batchId"`
	Outcomes []entity.Outcome `json:"outcomes"`
	OK       int              `json:"ok"`
	Failed   int              `json:"failed"`
}

type ProcessOrderResponse struct {
	OrderID   int64            `json:"orderId"`
	Completed bool             `json:"completed"`
	Outcomes  []entity.Outcome `json:"outcomes"`
	OK        int              `json:"ok"`
	Failed    int              `json:"failed"`
}

type OrderSummaryResponse struct {
	OrderID int64                `json:"orderId"`
	Subject string               `json:"subject"`
	HTML    string               `json:"html"`
	Courses []entity.CourseGroup `json:"courses"`
}

type SendReminderResponse struct {
	OrderID int64  `json:"orderId"`
	Sent    bool   `json:"sent"`
	Subject string `json:"subject"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// ConvenzioneRef is the parsed form of the spreadsheet's pipe-delimited
// convenzione field. Raw delimited strings stop at this boundary.
type ConvenzioneRef struct {
	Name     string
	Host     string
	Database string
}

type CourseRef struct {
	Code string
	Name string
}

func ParseConvenzioneRef(raw string) (ConvenzioneRef, error) {
	parts := strings.Split(raw, "|")
	if len(parts) != 3 {
		return ConvenzioneRef{}, fmt.Errorf("malformed convenzione reference %q, want name|host|database", raw)
	}
	ref := ConvenzioneRef{
		Name:     strings.TrimSpace(parts[0]),
		Host:     strings.TrimSpace(parts[1]),
		Database: strings.TrimSpace(parts[2]),
	}
	if ref.Name == "" || ref.Host == "" || ref.Database == "" {
		return ConvenzioneRef{}, fmt.Errorf("malformed convenzione reference %q, empty segment", raw)
	}
	return ref, nil
}

func ParseCourseRef(raw string) (CourseRef, error) {
	parts := strings.Split(raw, "|")
	if len(parts) != 2 {
		return CourseRef{}, fmt.Errorf("malformed course reference %q, want code|name", raw)
	}
	ref := CourseRef{
		Code: strings.TrimSpace(parts[0]),
		Name: strings.TrimSpace(parts[1]),
	}
	if ref.Code == "" {
		return CourseRef{}, fmt.Errorf("malformed course reference %q, empty code", raw)
	}
	return ref, nil
}
