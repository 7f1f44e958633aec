package models

import (
	"math"
	"strings"
	"time"
)

type Company struct {
	ID               string    `json:"id"`
	OwnerID          string    `json:"owner_id"`
	CompanyName      string    `json:"company_name"`
	Description      string    `json:"description"`
	Industry         string    `json:"industry"`
	CompanySize      string    `json:"company_size"`
	OrganizationType string    `json:"organization_type"`
	YearEstablished  string    `json:"year_established"`
	CompanyWebsite   string    `json:"company_website"`
	Vision           string    `json:"vision"`
	Address          string    `json:"address"`
	City             string    `json:"city"`
	State            string    `json:"state"`
	ZipCode          string    `json:"zip_code"`
	Country          string    `json:"country"`
	CompanyEmail     string    `json:"company_email"`
	CompanyPhone     string    `json:"company_phone"`
	SocialLinks      []string  `json:"social_links"`
	LogoURL          string    `json:"logo_url"`
	BannerURL        string    `json:"banner_url"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CompanyUpdate is a partial update. Only non-nil fields are written, and
// only the columns listed in Assignments can ever be touched.
type CompanyUpdate struct {
	CompanyName      *string   `json:"company_name"`
	Description      *string   `json:"description"`
	Industry         *string   `json:"industry"`
	CompanySize      *string   `json:"company_size"`
	OrganizationType *string   `json:"organization_type"`
	YearEstablished  *string   `json:"year_established"`
	CompanyWebsite   *string   `json:"company_website"`
	Vision           *string   `json:"vision"`
	Address          *string   `json:"address"`
	City             *string   `json:"city"`
	State            *string   `json:"state"`
	ZipCode          *string   `json:"zip_code"`
	Country          *string   `json:"country"`
	CompanyEmail     *string   `json:"company_email"`
	CompanyPhone     *string   `json:"company_phone"`
	SocialLinks      *[]string `json:"social_links"`
}

// Assignment is one column/value pair of a CompanyUpdate.
type Assignment struct {
	Column string
	Value  any
}

// Assignments returns the set fields in a stable column order. SocialLinks
// is returned as a []string; stores encode it as they see fit.
func (u CompanyUpdate) Assignments() []Assignment {
	var out []Assignment
	add := func(column string, v *string) {
		if v != nil {
			out = append(out, Assignment{Column: column, Value: strings.TrimSpace(*v)})
		}
	}

	add("company_name", u.CompanyName)
	add("description", u.Description)
	add("industry", u.Industry)
	add("company_size", u.CompanySize)
	add("organization_type", u.OrganizationType)
	add("year_established", u.YearEstablished)
	add("company_website", u.CompanyWebsite)
	add("vision", u.Vision)
	add("address", u.Address)
	add("city", u.City)
	add("state", u.State)
	add("zip_code", u.ZipCode)
	add("country", u.Country)
	add("company_email", u.CompanyEmail)
	add("company_phone", u.CompanyPhone)
	if u.SocialLinks != nil {
		links := *u.SocialLinks
		if links == nil {
			links = []string{}
		}
		out = append(out, Assignment{Column: "social_links", Value: links})
	}

	return out
}

// Apply copies the set fields onto c.
func (u CompanyUpdate) Apply(c *Company) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}

	set(&c.CompanyName, u.CompanyName)
	set(&c.Description, u.Description)
	set(&c.Industry, u.Industry)
	set(&c.CompanySize, u.CompanySize)
	set(&c.OrganizationType, u.OrganizationType)
	set(&c.YearEstablished, u.YearEstablished)
	set(&c.CompanyWebsite, u.CompanyWebsite)
	set(&c.Vision, u.Vision)
	set(&c.Address, u.Address)
	set(&c.City, u.City)
	set(&c.State, u.State)
	set(&c.ZipCode, u.ZipCode)
	set(&c.Country, u.Country)
	set(&c.CompanyEmail, u.CompanyEmail)
	set(&c.CompanyPhone, u.CompanyPhone)
	if u.SocialLinks != nil {
		c.SocialLinks = append([]string{}, (*u.SocialLinks)...)
	}
}

// CompletionPercentage is the share of wizard-required fields that are
// filled, rounded to the nearest integer.
func (c *Company) CompletionPercentage() int {
	required := []string{
		c.CompanyName,
		c.CompanyEmail,
		c.CompanyPhone,
		c.Industry,
		c.CompanySize,
		c.OrganizationType,
		c.Address,
		c.City,
		c.State,
		c.Country,
	}

	filled := 0
	for _, v := range required {
		if strings.TrimSpace(v) != "" {
			filled++
		}
	}

	return int(math.Round(float64(filled) / float64(len(required)) * 100))
}

// CompanyInput is the payload of the first wizard step.
type CompanyInput struct {
	CompanyName      string   `json:"company_name"`
	Description      string   `json:"description"`
	Industry         string   `json:"industry"`
	CompanySize      string   `json:"company_size"`
	OrganizationType string   `json:"organization_type"`
	YearEstablished  string   `json:"year_established"`
	CompanyWebsite   string   `json:"company_website"`
	Vision           string   `json:"vision"`
	Address          string   `json:"address"`
	City             string   `json:"city"`
	State            string   `json:"state"`
	ZipCode          string   `json:"zip_code"`
	Country          string   `json:"country"`
	CompanyEmail     string   `json:"company_email"`
	CompanyPhone     string   `json:"company_phone"`
	SocialLinks      []string `json:"social_links"`
}

// NewCompany builds a company row from in with every text field trimmed.
func NewCompany(id, ownerID string, in CompanyInput) *Company {
	links := make([]string, 0, len(in.SocialLinks))
	for _, l := range in.SocialLinks {
		if l = strings.TrimSpace(l); l != "" {
			links = append(links, l)
		}
	}

	return &Company{
		ID:               id,
		OwnerID:          ownerID,
		CompanyName:      strings.TrimSpace(in.CompanyName),
		Description:      strings.TrimSpace(in.Description),
		Industry:         strings.TrimSpace(in.Industry),
		CompanySize:      strings.TrimSpace(in.CompanySize),
		OrganizationType: strings.TrimSpace(in.OrganizationType),
		YearEstablished:  strings.TrimSpace(in.YearEstablished),
		CompanyWebsite:   strings.TrimSpace(in.CompanyWebsite),
		Vision:           strings.TrimSpace(in.Vision),
		Address:          strings.TrimSpace(in.Address),
		City:             strings.TrimSpace(in.City),
		State:            strings.TrimSpace(in.State),
		ZipCode:          strings.TrimSpace(in.ZipCode),
		Country:          strings.TrimSpace(in.Country),
		CompanyEmail:     strings.TrimSpace(in.CompanyEmail),
		CompanyPhone:     strings.TrimSpace(in.CompanyPhone),
		SocialLinks:      links,
	}
}
