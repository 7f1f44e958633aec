package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestCompanyUpdate_Assignments(t *testing.T) {
	links := []string{"https://x.com/acme"}
	u := CompanyUpdate{
		City:        strPtr("  Pune "),
		CompanyName: strPtr("Acme"),
		SocialLinks: &links,
	}

	got := u.Assignments()

	assert.Equal(t, []Assignment{
		{Column: "company_name", Value: "Acme"},
		{Column: "city", Value: "Pune"},
		{Column: "social_links", Value: []string{"https://x.com/acme"}},
	}, got)
}

func TestCompanyUpdate_AssignmentsEmpty(t *testing.T) {
	assert.Empty(t, CompanyUpdate{}.Assignments())
}

func TestCompanyUpdate_Apply(t *testing.T) {
	c := &Company{CompanyName: "Old", City: "Delhi"}
	CompanyUpdate{CompanyName: strPtr("New")}.Apply(c)

	assert.Equal(t, "New", c.CompanyName)
	assert.Equal(t, "Delhi", c.City)
}

func TestCompany_CompletionPercentage(t *testing.T) {
	tests := []struct {
		name    string
		company Company
		want    int
	}{
		{"empty", Company{}, 0},
		{"name and email", Company{CompanyName: "Acme", CompanyEmail: "hq@acme.io"}, 20},
		{"blank is not filled", Company{CompanyName: "Acme", City: "   "}, 10},
		{
			"complete",
			Company{
				CompanyName: "Acme", CompanyEmail: "hq@acme.io", CompanyPhone: "+911234567890",
				Industry: "Software", CompanySize: "11-50", OrganizationType: "Private",
				Address: "1 Main St", City: "Pune", State: "MH", Country: "India",
			},
			100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.company.CompletionPercentage())
		})
	}
}

func TestNewCompany_TrimsAndDropsBlankLinks(t *testing.T) {
	c := NewCompany("c-1", "u-1", CompanyInput{
		CompanyName:  "  Acme ",
		CompanyEmail: "hq@acme.io ",
		SocialLinks:  []string{" https://x.com/acme ", "  "},
	})

	assert.Equal(t, "c-1", c.ID)
	assert.Equal(t, "u-1", c.OwnerID)
	assert.Equal(t, "Acme", c.CompanyName)
	assert.Equal(t, "hq@acme.io", c.CompanyEmail)
	assert.Equal(t, []string{"https://x.com/acme"}, c.SocialLinks)
}
