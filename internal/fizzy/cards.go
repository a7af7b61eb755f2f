package fizzy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/steveyegge/bizzy/internal/mapper"
)

var cardLocationPattern = regexp.MustCompile(`/cards/(\d+)(?:\.json)?$`)

// ListCards returns cards in the account, filtered to one board when
// boardID is non-empty.
func (c *Client) ListCards(ctx context.Context, boardID string) ([]Card, error) {
	path := c.accountPath("/cards")
	if boardID != "" {
		path += "?board_id=" + url.QueryEscape(boardID)
	}
	var cards []Card
	if err := c.get(ctx, path, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// GetCard returns one card by number, or nil if it does not exist.
func (c *Client) GetCard(ctx context.Context, number int) (*Card, error) {
	resp, err := c.do(ctx, http.MethodGet, c.accountPath("/cards/"+strconv.Itoa(number)), nil, true)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusNotFound {
		return nil, nil
	}
	var card Card
	if err := json.Unmarshal(resp.body, &card); err != nil {
		return nil, decodeError(c.accountPath("/cards/"+strconv.Itoa(number)), err)
	}
	return &card, nil
}

// CreateCard creates a card on a board. The card number is recovered from
// the 201 Location header, then the response body, then by scanning for
// the beads marker embedded in the description. A card with Number 0
// means the server gave no way to identify what it created.
func (c *Client) CreateCard(ctx context.Context, boardID, title, description string) (*Card, error) {
	card := map[string]string{"title": title}
	if description != "" {
		card["description"] = description
	}
	payload := map[string]any{"card": card}
	path := c.accountPath("/boards/" + boardID + "/cards")
	resp, err := c.do(ctx, http.MethodPost, path, payload, false)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusCreated {
		if loc := resp.header.Get("Location"); loc != "" {
			if m := cardLocationPattern.FindStringSubmatch(loc); m != nil {
				number, _ := strconv.Atoi(m[1])
				return &Card{Number: number, Title: title}, nil
			}
		}
		var created Card
		if json.Unmarshal(resp.body, &created) == nil && created.Number != 0 {
			return &created, nil
		}
		if id := mapper.ExtractIssueID(description); id != "" {
			if found, err := c.FindCardByBeadsID(ctx, id, boardID); err == nil && found != nil {
				return found, nil
			}
		}
		return &Card{Title: title}, nil
	}
	var created Card
	if err := json.Unmarshal(resp.body, &created); err != nil {
		return nil, decodeError(path, err)
	}
	return &created, nil
}

// FindCardByBeadsID locates the card carrying the marker for beadsID in
// its description. Returns nil when no card matches.
func (c *Client) FindCardByBeadsID(ctx context.Context, beadsID, boardID string) (*Card, error) {
	cards, err := c.ListCards(ctx, boardID)
	if err != nil {
		return nil, err
	}
	marker := mapper.Marker(beadsID)
	for i := range cards {
		if strings.Contains(cards[i].Description, marker) {
			return &cards[i], nil
		}
	}
	return nil, nil
}

// UpdateCard changes a card's title and/or description. Nil fields are
// left untouched on the server.
func (c *Client) UpdateCard(ctx context.Context, number int, title, description *string) (*Card, error) {
	card := map[string]string{}
	if title != nil {
		card["title"] = *title
	}
	if description != nil {
		card["description"] = *description
	}
	payload := map[string]any{"card": card}
	path := c.accountPath("/cards/" + strconv.Itoa(number))
	resp, err := c.do(ctx, http.MethodPut, path, payload, false)
	if err != nil {
		return nil, err
	}
	if len(resp.body) == 0 {
		return &Card{Number: number}, nil
	}
	var updated Card
	if err := json.Unmarshal(resp.body, &updated); err != nil {
		return nil, decodeError(path, err)
	}
	return &updated, nil
}

// DeleteCard removes a card.
func (c *Client) DeleteCard(ctx context.Context, number int) error {
	_, err := c.do(ctx, http.MethodDelete, c.accountPath("/cards/"+strconv.Itoa(number)), nil, false)
	return err
}

// CloseCard marks a card closed.
func (c *Client) CloseCard(ctx context.Context, number int) error {
	_, err := c.do(ctx, http.MethodPost, c.accountPath("/cards/"+strconv.Itoa(number)+"/closure"), nil, false)
	return err
}

// ReopenCard reverses a closure. A 404 is tolerated since the card may
// never have been closed.
func (c *Client) ReopenCard(ctx context.Context, number int) error {
	_, err := c.do(ctx, http.MethodDelete, c.accountPath("/cards/"+strconv.Itoa(number)+"/closure"), nil, true)
	return err
}

// TriageCard moves a card into a column.
func (c *Client) TriageCard(ctx context.Context, number int, columnID string) error {
	payload := map[string]string{"column_id": columnID}
	_, err := c.do(ctx, http.MethodPost, c.accountPath("/cards/"+strconv.Itoa(number)+"/triage"), payload, false)
	return err
}

// UntriageCard sends a card back to the board's triage area. A 404 is
// tolerated since the card may not be in any column.
func (c *Client) UntriageCard(ctx context.Context, number int) error {
	_, err := c.do(ctx, http.MethodDelete, c.accountPath("/cards/"+strconv.Itoa(number)+"/triage"), nil, true)
	return err
}

// ListTags returns the account's tags.
func (c *Client) ListTags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := c.get(ctx, c.accountPath("/tags"), &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// ToggleTag adds the tag to the card if absent, removes it if present.
func (c *Client) ToggleTag(ctx context.Context, number int, tagTitle string) error {
	payload := map[string]string{"tag_title": tagTitle}
	_, err := c.do(ctx, http.MethodPost, c.accountPath("/cards/"+strconv.Itoa(number)+"/taggings"), payload, false)
	return err
}
