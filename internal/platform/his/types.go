package his

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// newNumberDecoder decodes with UseNumber so 14-digit HIS timestamps survive
// as json.Number instead of losing precision as float64.
func newNumberDecoder(raw []byte) *json.Decoder {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec
}

// OrderSnapshot is the canonical form of one HIS clinical order. The upstream
// payload varies between a nested patient object and flattened patient
// fields; normalization happens once here, before any business logic sees
// the data.
type OrderSnapshot struct {
	ServiceReqCode  string
	Status          string
	ExternalOrderID string
	InstructionTime interface{} // raw HIS timestamp, decoded by the consumer
	ICDCode         string
	ICDName         string
	ICDText         string
	Note            string
	TotalAmount     *float64
	RoomCode        string
	RoomName        string
	DepartmentCode  string
	DepartmentName  string
	Patient         PatientSnapshot
	Items           []ItemSnapshot
}

// PatientSnapshot carries the patient attributes attached to an order. Date
// fields stay raw so the patient resolver can apply its own decode-or-reject
// policy.
type PatientSnapshot struct {
	LisPatientID         string
	PatientCode          string
	Name                 string
	DateOfBirth          interface{}
	NationalID           string
	NationalIDIssueDate  interface{}
	NationalIDIssuePlace string
	Address              string
	GenderID             *int
	GenderName           string
	ExternalID           string
}

// ItemSnapshot is one ordered service line.
type ItemSnapshot struct {
	ServiceCode string
	ServiceName string
	UnitPrice   *float64
	Quantity    *int
	TotalPrice  *float64
	Status      string
	ItemOrder   *int
	Tests       []TestSnapshot
}

// TestSnapshot is one sub-test of an ordered service.
type TestSnapshot struct {
	TestCode  string
	TestName  string
	ShortName string
	TestOrder *int
}

type patientPayload struct {
	LisPatientID         string      `json:"lisPatientId"`
	PatientCode          string      `json:"patientCode"`
	Code                 string      `json:"code"`
	Name                 string      `json:"name"`
	PatientName          string      `json:"patientName"`
	Dob                  interface{} `json:"dob"`
	DateOfBirth          interface{} `json:"dateOfBirth"`
	NationalID           string      `json:"nationalId"`
	NationalIDIssueDate  interface{} `json:"nationalIdIssueDate"`
	NationalIDIssuePlace string      `json:"nationalIdIssuePlace"`
	Address              string      `json:"address"`
	GenderID             *int        `json:"genderId"`
	GenderName           string      `json:"genderName"`
	ExternalID           string      `json:"id"`
}

type testPayload struct {
	Code      string `json:"code"`
	TestCode  string `json:"testCode"`
	Name      string `json:"name"`
	TestName  string `json:"testName"`
	ShortName string `json:"shortName"`
	Order     *int   `json:"order"`
	TestOrder *int   `json:"testOrder"`
}

type itemPayload struct {
	Code     string        `json:"code"`
	Name     string        `json:"name"`
	Price    *float64      `json:"price"`
	Quantity *int          `json:"quantity"`
	Total    *float64      `json:"total"`
	Status   string        `json:"status"`
	Order    *int          `json:"order"`
	Tests    []testPayload `json:"tests"`
}

type orderPayload struct {
	ServiceReqCode  string      `json:"serviceReqCode"`
	Status          string      `json:"status"`
	ID              string      `json:"id"`
	InstructionTime interface{} `json:"instructionTime"`
	InstructionDate interface{} `json:"instructionDate"`
	ICDCode         string      `json:"icdCode"`
	ICDName         string      `json:"icdName"`
	ICDText         string      `json:"icdText"`
	Note            string      `json:"note"`
	TotalAmount     *float64    `json:"totalAmount"`
	RoomCode        string      `json:"roomCode"`
	RoomName        string      `json:"roomName"`
	DepartmentCode  string      `json:"departmentCode"`
	DepartmentName  string      `json:"departmentName"`

	Patient *patientPayload `json:"patient"`

	// Flattened patient fields, used when no nested object is present.
	LisPatientID         string      `json:"lisPatientId"`
	PatientCode          string      `json:"patientCode"`
	PatientName          string      `json:"patientName"`
	Dob                  interface{} `json:"dob"`
	NationalID           string      `json:"nationalId"`
	NationalIDIssueDate  interface{} `json:"nationalIdIssueDate"`
	NationalIDIssuePlace string      `json:"nationalIdIssuePlace"`
	Address              string      `json:"address"`
	GenderID             *int        `json:"genderId"`
	GenderName           string      `json:"genderName"`

	LisServices []itemPayload `json:"lisServices"`
}

// ParseOrderSnapshot decodes an upstream order payload into its canonical
// form. Both the nested-patient and flattened shape are accepted; the nested
// object wins when both are present.
func ParseOrderSnapshot(raw []byte) (*OrderSnapshot, error) {
	var p orderPayload
	dec := newNumberDecoder(raw)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse order snapshot: %w", err)
	}
	if p.ServiceReqCode == "" {
		return nil, fmt.Errorf("parse order snapshot: missing serviceReqCode")
	}

	snap := &OrderSnapshot{
		ServiceReqCode:  p.ServiceReqCode,
		Status:          p.Status,
		ExternalOrderID: p.ID,
		InstructionTime: firstNonNil(p.InstructionTime, p.InstructionDate),
		ICDCode:         p.ICDCode,
		ICDName:         p.ICDName,
		ICDText:         p.ICDText,
		Note:            p.Note,
		TotalAmount:     p.TotalAmount,
		RoomCode:        p.RoomCode,
		RoomName:        p.RoomName,
		DepartmentCode:  p.DepartmentCode,
		DepartmentName:  p.DepartmentName,
	}

	if p.Patient != nil {
		snap.Patient = PatientSnapshot{
			LisPatientID:         p.Patient.LisPatientID,
			PatientCode:          firstNonEmpty(p.Patient.PatientCode, p.Patient.Code),
			Name:                 firstNonEmpty(p.Patient.Name, p.Patient.PatientName),
			DateOfBirth:          firstNonNil(p.Patient.Dob, p.Patient.DateOfBirth),
			NationalID:           p.Patient.NationalID,
			NationalIDIssueDate:  p.Patient.NationalIDIssueDate,
			NationalIDIssuePlace: p.Patient.NationalIDIssuePlace,
			Address:              p.Patient.Address,
			GenderID:             p.Patient.GenderID,
			GenderName:           p.Patient.GenderName,
			ExternalID:           p.Patient.ExternalID,
		}
	} else {
		snap.Patient = PatientSnapshot{
			LisPatientID:         p.LisPatientID,
			PatientCode:          p.PatientCode,
			Name:                 p.PatientName,
			DateOfBirth:          p.Dob,
			NationalID:           p.NationalID,
			NationalIDIssueDate:  p.NationalIDIssueDate,
			NationalIDIssuePlace: p.NationalIDIssuePlace,
			Address:              p.Address,
			GenderID:             p.GenderID,
			GenderName:           p.GenderName,
		}
	}

	for _, item := range p.LisServices {
		is := ItemSnapshot{
			ServiceCode: item.Code,
			ServiceName: item.Name,
			UnitPrice:   item.Price,
			Quantity:    item.Quantity,
			TotalPrice:  item.Total,
			Status:      item.Status,
			ItemOrder:   item.Order,
		}
		for _, t := range item.Tests {
			order := t.Order
			if order == nil {
				order = t.TestOrder
			}
			is.Tests = append(is.Tests, TestSnapshot{
				TestCode:  firstNonEmpty(t.Code, t.TestCode),
				TestName:  firstNonEmpty(t.Name, t.TestName),
				ShortName: t.ShortName,
				TestOrder: order,
			})
		}
		snap.Items = append(snap.Items, is)
	}

	return snap, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonNil(values ...interface{}) interface{} {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
