package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"smartfind/internal/domain"
)

// Suggest returns autocomplete labels for a partial query
func (c *Client) Suggest(ctx context.Context, query string, limit int) ([]string, error) {
	params := url.Values{"q": {query}, "limit": {strconv.Itoa(limit)}}
	data, err := c.do(ctx, http.MethodGet, "/search/suggest", params, nil)
	if err != nil {
		return nil, err
	}
	o, ok := decodeObject(data)
	if !ok {
		return nil, nil
	}
	return o.Strings("suggestions"), nil
}

// Search runs a full-text equipment search
func (c *Client) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	data, err := c.do(ctx, http.MethodGet, "/search", url.Values{"q": {query}}, nil)
	if err != nil {
		return nil, err
	}

	items, ok := decodeArray(data)
	if !ok {
		return nil, nil
	}
	results := make([]domain.SearchResult, 0, len(items))
	for _, raw := range items {
		o, ok := decodeObject(raw)
		if !ok {
			continue
		}
		id, ok := o.Int("id_objet")
		if !ok {
			continue
		}
		status := o.String("statut")
		results = append(results, domain.SearchResult{
			ID:         id,
			Name:       o.String("nom_model"),
			Type:       o.String("type_objet"),
			Brand:      o.String("nom_marque"),
			StatusText: status,
			Status:     domain.ClassifyEquipmentStatus(status),
			Room:       o.String("id_salle"),
		})
	}
	return results, nil
}

// Me returns the account behind the current session
func (c *Client) Me(ctx context.Context) (domain.User, error) {
	data, err := c.do(ctx, http.MethodGet, "/users/me", nil, nil)
	if err != nil {
		return domain.User{}, err
	}
	o, ok := decodeObject(data)
	if !ok {
		return domain.User{}, ErrMalformedResponse
	}
	id, _ := o.Int("id_utilisateur")
	return domain.User{
		ID:        id,
		FirstName: o.String("prenom"),
		LastName:  o.String("nom"),
		Email:     o.String("email"),
		Role:      o.String("role"),
	}, nil
}
