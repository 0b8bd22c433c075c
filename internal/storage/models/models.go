// Package models holds the GORM table definitions and their conversions to
// the wire-level types.
package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"ats-agent-go/internal/types"
)

// Applicant is the applicants table. Secondary skills are stored as a JSON
// column; the relational shape mirrors types.Applicant field for field.
type Applicant struct {
	ID              string         `gorm:"primaryKey;type:varchar(36)"`
	FullName        string         `gorm:"type:varchar(255);index"`
	Email           string         `gorm:"type:varchar(255);index"`
	Phone           string         `gorm:"type:varchar(64)"`
	LinkedinURL     string         `gorm:"type:varchar(512)"`
	CurrentJobTitle string         `gorm:"type:varchar(255)"`
	CurrentCompany  string         `gorm:"type:varchar(255)"`
	PrimarySkill    string         `gorm:"type:varchar(255)"`
	SecondarySkills datatypes.JSON `gorm:"type:json"`
	TotalYOE        float64
	Status          string `gorm:"type:varchar(32);index"`
	Source          string `gorm:"type:varchar(64)"`
	DateApplied     string `gorm:"type:varchar(32)"`
	Location        string `gorm:"type:varchar(255)"`
	Availability    string `gorm:"type:varchar(64)"`
	DesiredSalary   string `gorm:"type:varchar(64)"`
	ResumeKey       string `gorm:"type:varchar(512)"`
	Notes           string `gorm:"type:text"`
	Rating          *int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Applicant) TableName() string { return "applicants" }

// JobOrder is the job_orders table.
type JobOrder struct {
	ID            string `gorm:"primaryKey;type:varchar(36)"`
	JobTitle      string `gorm:"type:varchar(255);index"`
	ClientCompany string `gorm:"type:varchar(255);index"`
	HiringManager string `gorm:"type:varchar(255)"`
	Status        string `gorm:"type:varchar(32);index"`
	Priority      string `gorm:"type:varchar(32)"`
	SalaryRange   string `gorm:"type:varchar(128)"`
	FeeType       string `gorm:"type:varchar(64)"`
	DateOpened    string `gorm:"type:varchar(32)"`
	Notes         string `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (JobOrder) TableName() string { return "job_orders" }

// Client is the clients table.
type Client struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	CompanyName  string `gorm:"type:varchar(255);index"`
	Industry     string `gorm:"type:varchar(128)"`
	Website      string `gorm:"type:varchar(512)"`
	Status       string `gorm:"type:varchar(32);index"`
	Location     string `gorm:"type:varchar(255)"`
	FeeAgreement string `gorm:"type:varchar(255)"`
	KeyContact   string `gorm:"type:varchar(255)"`
	Notes        string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Client) TableName() string { return "clients" }

func ApplicantFromType(a *types.Applicant) (*Applicant, error) {
	skills, err := json.Marshal(a.SecondarySkills)
	if err != nil {
		return nil, err
	}
	return &Applicant{
		ID:              a.ID,
		FullName:        a.FullName,
		Email:           a.Email,
		Phone:           a.Phone,
		LinkedinURL:     a.LinkedinURL,
		CurrentJobTitle: a.CurrentJobTitle,
		CurrentCompany:  a.CurrentCompany,
		PrimarySkill:    a.PrimarySkill,
		SecondarySkills: datatypes.JSON(skills),
		TotalYOE:        a.TotalYOE,
		Status:          a.Status,
		Source:          a.Source,
		DateApplied:     a.DateApplied,
		Location:        a.Location,
		Availability:    a.Availability,
		DesiredSalary:   a.DesiredSalary,
		ResumeKey:       a.ResumeKey,
		Notes:           a.Notes,
		Rating:          a.Rating,
	}, nil
}

func (a *Applicant) ToType() types.Applicant {
	var skills []string
	// A corrupt skills column degrades to an empty list.
	_ = json.Unmarshal(a.SecondarySkills, &skills)
	return types.Applicant{
		ID:              a.ID,
		FullName:        a.FullName,
		Email:           a.Email,
		Phone:           a.Phone,
		LinkedinURL:     a.LinkedinURL,
		CurrentJobTitle: a.CurrentJobTitle,
		CurrentCompany:  a.CurrentCompany,
		PrimarySkill:    a.PrimarySkill,
		SecondarySkills: skills,
		TotalYOE:        a.TotalYOE,
		Status:          a.Status,
		Source:          a.Source,
		DateApplied:     a.DateApplied,
		Location:        a.Location,
		Availability:    a.Availability,
		DesiredSalary:   a.DesiredSalary,
		ResumeKey:       a.ResumeKey,
		Notes:           a.Notes,
		Rating:          a.Rating,
	}
}

func JobOrderFromType(j *types.JobOrder) *JobOrder {
	return &JobOrder{
		ID:            j.ID,
		JobTitle:      j.JobTitle,
		ClientCompany: j.ClientCompany,
		HiringManager: j.HiringManager,
		Status:        j.Status,
		Priority:      j.Priority,
		SalaryRange:   j.SalaryRange,
		FeeType:       j.FeeType,
		DateOpened:    j.DateOpened,
		Notes:         j.Notes,
	}
}

func (j *JobOrder) ToType() types.JobOrder {
	return types.JobOrder{
		ID:            j.ID,
		JobTitle:      j.JobTitle,
		ClientCompany: j.ClientCompany,
		HiringManager: j.HiringManager,
		Status:        j.Status,
		Priority:      j.Priority,
		SalaryRange:   j.SalaryRange,
		FeeType:       j.FeeType,
		DateOpened:    j.DateOpened,
		Notes:         j.Notes,
	}
}

func ClientFromType(c *types.Client) *Client {
	return &Client{
		ID:           c.ID,
		CompanyName:  c.CompanyName,
		Industry:     c.Industry,
		Website:      c.Website,
		Status:       c.Status,
		Location:     c.Location,
		FeeAgreement: c.FeeAgreement,
		KeyContact:   c.KeyContact,
		Notes:        c.Notes,
	}
}

func (c *Client) ToType() types.Client {
	return types.Client{
		ID:           c.ID,
		CompanyName:  c.CompanyName,
		Industry:     c.Industry,
		Website:      c.Website,
		Status:       c.Status,
		Location:     c.Location,
		FeeAgreement: c.FeeAgreement,
		KeyContact:   c.KeyContact,
		Notes:        c.Notes,
	}
}
