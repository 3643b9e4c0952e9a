// Package notion implements the service.RecordStore interface on a Notion
// database. The property schema is fixed: Number (number), Role (title),
// Organization (rich_text), Status (select), Date (date), Notes (rich_text),
// "Job description" (url). Name or type drift in the database is reported as
// a schema mismatch, never silently tolerated.
package notion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"

	"github.com/ThamerD/JappTracker/internal/models"
	"github.com/ThamerD/JappTracker/internal/service"
)

const (
	propNumber       = "Number"
	propRole         = "Role"
	propOrganization = "Organization"
	propStatus       = "Status"
	propDate         = "Date"
	propNotes        = "Notes"
	propJobDescLink  = "Job description"
)

type Client struct {
	api        *notionapi.Client
	databaseID notionapi.DatabaseID
}

func NewClient(apiKey, databaseID string) *Client {
	return &Client{
		api:        notionapi.NewClient(notionapi.Token(apiKey)),
		databaseID: notionapi.DatabaseID(databaseID),
	}
}

// Find looks up the record for a (role, organization) pair with a single
// compound filter query. Notion text filters compare case-insensitively,
// which matches the reconciler's natural-key policy.
func (c *Client) Find(ctx context.Context, role, organization string) (*models.Record, error) {
	resp, err := c.api.Database.Query(ctx, c.databaseID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.AndCompoundFilter{
			notionapi.PropertyFilter{
				Property: propRole,
				RichText: &notionapi.TextFilterCondition{Equals: strings.TrimSpace(role)},
			},
			notionapi.PropertyFilter{
				Property: propOrganization,
				RichText: &notionapi.TextFilterCondition{Equals: strings.TrimSpace(organization)},
			},
		},
		PageSize: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: query database: %v", service.ErrStoreUnavailable, err)
	}

	if len(resp.Results) == 0 {
		return nil, nil
	}

	rec, err := pageToRecord(&resp.Results[0])
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Create writes a new page with the full property set, assigning the next
// sequential Number, and returns the new page id.
func (c *Client) Create(ctx context.Context, app models.JobApplication) (string, error) {
	number, err := c.nextNumber(ctx)
	if err != nil {
		return "", err
	}

	page, err := c.api.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: c.databaseID,
		},
		Properties: buildCreateProperties(app, number),
	})
	if err != nil {
		return "", fmt.Errorf("%w: create page: %v", service.ErrStoreUnavailable, err)
	}

	return page.ID.String(), nil
}

// Update writes only the fields present in the patch. An existing URL cannot
// be cleared, only replaced, so a nil link leaves the property untouched.
func (c *Client) Update(ctx context.Context, id string, patch models.RecordPatch) error {
	props := buildPatchProperties(patch)
	if len(props) == 0 {
		return nil
	}

	_, err := c.api.Page.Update(ctx, notionapi.PageID(id), &notionapi.PageUpdateRequest{
		Properties: props,
	})
	if err != nil {
		return fmt.Errorf("%w: update page %s: %v", service.ErrStoreUnavailable, id, err)
	}
	return nil
}

// nextNumber returns one past the highest Number in the database, or 1 for an
// empty database.
func (c *Client) nextNumber(ctx context.Context) (int, error) {
	resp, err := c.api.Database.Query(ctx, c.databaseID, &notionapi.DatabaseQueryRequest{
		Sorts: []notionapi.SortObject{
			{Property: propNumber, Direction: notionapi.SortOrderDESC},
		},
		PageSize: 1,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: query max number: %v", service.ErrStoreUnavailable, err)
	}

	if len(resp.Results) == 0 {
		return 1, nil
	}

	num, err := numberValue(resp.Results[0].Properties, propNumber)
	if err != nil {
		return 0, err
	}
	return num + 1, nil
}

func buildCreateProperties(app models.JobApplication, number int) notionapi.Properties {
	props := notionapi.Properties{
		propNumber: notionapi.NumberProperty{Number: float64(number)},
		propRole: notionapi.TitleProperty{
			Title: richText(app.Role),
		},
		propOrganization: notionapi.RichTextProperty{
			RichText: richText(app.Organization),
		},
		propStatus: notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(app.Status)},
		},
		propDate: dateProperty(app.Date),
		propNotes: notionapi.RichTextProperty{
			RichText: richText(app.Notes),
		},
	}

	// Omitted entirely when empty; Notion leaves the property blank.
	if app.JobDescriptionLink != "" {
		props[propJobDescLink] = notionapi.URLProperty{URL: app.JobDescriptionLink}
	}

	return props
}

func buildPatchProperties(patch models.RecordPatch) notionapi.Properties {
	props := notionapi.Properties{}
	if patch.Status != nil {
		props[propStatus] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(*patch.Status)},
		}
	}
	if patch.Date != nil {
		props[propDate] = dateProperty(*patch.Date)
	}
	if patch.JobDescriptionLink != nil && *patch.JobDescriptionLink != "" {
		props[propJobDescLink] = notionapi.URLProperty{URL: *patch.JobDescriptionLink}
	}
	if patch.Notes != nil {
		props[propNotes] = notionapi.RichTextProperty{
			RichText: richText(*patch.Notes),
		}
	}
	return props
}

// pageToRecord maps a queried page onto a Record, verifying the property
// schema as it goes.
func pageToRecord(page *notionapi.Page) (*models.Record, error) {
	rec := &models.Record{ID: page.ID.String()}

	num, err := numberValue(page.Properties, propNumber)
	if err != nil {
		return nil, err
	}
	rec.Number = num

	role, err := titleValue(page.Properties, propRole)
	if err != nil {
		return nil, err
	}
	rec.Role = role

	org, err := richTextValue(page.Properties, propOrganization)
	if err != nil {
		return nil, err
	}
	rec.Organization = org

	status, err := selectValue(page.Properties, propStatus)
	if err != nil {
		return nil, err
	}
	rec.Status = models.ParseStatus(status)

	date, err := dateValue(page.Properties, propDate)
	if err != nil {
		return nil, err
	}
	rec.Date = date

	notes, err := richTextValue(page.Properties, propNotes)
	if err != nil {
		return nil, err
	}
	rec.Notes = notes

	// Link is optional: absent property means no link was ever stored.
	if prop, ok := page.Properties[propJobDescLink]; ok {
		urlProp, ok := prop.(*notionapi.URLProperty)
		if !ok {
			return nil, schemaErr(propJobDescLink, "url", prop)
		}
		rec.JobDescriptionLink = urlProp.URL
	}

	return rec, nil
}

func richText(content string) []notionapi.RichText {
	if content == "" {
		return []notionapi.RichText{}
	}
	return []notionapi.RichText{
		{Text: &notionapi.Text{Content: content}},
	}
}

func dateProperty(t time.Time) notionapi.DateProperty {
	d := notionapi.Date(t)
	return notionapi.DateProperty{
		Date: &notionapi.DateObject{Start: &d},
	}
}

func numberValue(props notionapi.Properties, name string) (int, error) {
	prop, ok := props[name]
	if !ok {
		return 0, schemaErr(name, "number", nil)
	}
	numProp, ok := prop.(*notionapi.NumberProperty)
	if !ok {
		return 0, schemaErr(name, "number", prop)
	}
	return int(numProp.Number), nil
}

func titleValue(props notionapi.Properties, name string) (string, error) {
	prop, ok := props[name]
	if !ok {
		return "", schemaErr(name, "title", nil)
	}
	titleProp, ok := prop.(*notionapi.TitleProperty)
	if !ok {
		return "", schemaErr(name, "title", prop)
	}
	return plainText(titleProp.Title), nil
}

func richTextValue(props notionapi.Properties, name string) (string, error) {
	prop, ok := props[name]
	if !ok {
		return "", schemaErr(name, "rich_text", nil)
	}
	rtProp, ok := prop.(*notionapi.RichTextProperty)
	if !ok {
		return "", schemaErr(name, "rich_text", prop)
	}
	return plainText(rtProp.RichText), nil
}

func selectValue(props notionapi.Properties, name string) (string, error) {
	prop, ok := props[name]
	if !ok {
		return "", schemaErr(name, "select", nil)
	}
	selProp, ok := prop.(*notionapi.SelectProperty)
	if !ok {
		return "", schemaErr(name, "select", prop)
	}
	return selProp.Select.Name, nil
}

func dateValue(props notionapi.Properties, name string) (time.Time, error) {
	prop, ok := props[name]
	if !ok {
		return time.Time{}, schemaErr(name, "date", nil)
	}
	dateProp, ok := prop.(*notionapi.DateProperty)
	if !ok {
		return time.Time{}, schemaErr(name, "date", prop)
	}
	if dateProp.Date == nil || dateProp.Date.Start == nil {
		return time.Time{}, nil
	}
	return time.Time(*dateProp.Date.Start), nil
}

func schemaErr(name, want string, got any) error {
	if got == nil {
		return fmt.Errorf("%w: property %q (%s) not found in database", service.ErrSchemaMismatch, name, want)
	}
	return fmt.Errorf("%w: property %q has type %T, expected %s", service.ErrSchemaMismatch, name, got, want)
}

// plainText joins the rendered text of a rich-text array. PlainText is set on
// pages read back from the API; Text.Content covers locally built values.
func plainText(rts []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range rts {
		if rt.PlainText != "" {
			b.WriteString(rt.PlainText)
		} else if rt.Text != nil {
			b.WriteString(rt.Text.Content)
		}
	}
	return b.String()
}
