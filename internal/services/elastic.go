package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"codpage_back_end/internal/apperrors"
	"codpage_back_end/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

//
// --- INDEXATION DANS ELASTICSEARCH ---
//

// ElasticIndex maintient l'index de recherche du catalogue mock.
type ElasticIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticIndex(client *elasticsearch.Client, index string) *ElasticIndex {
	if index == "" {
		index = "products"
	}
	return &ElasticIndex{client: client, index: index}
}

// IndexProduct indexe (ou réindexe) un produit sous son identifiant.
func (e *ElasticIndex) IndexProduct(ctx context.Context, p models.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encodage produit %s: %w", p.ID, err)
	}

	req := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: p.ID,
		Body:       bytes.NewReader(data),
		Refresh:    "true", // rend la donnée immédiatement visible
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return apperrors.Transient("elasticsearch", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperrors.Transient("elasticsearch", fmt.Errorf("indexation %s: %s", p.ID, res.Status()))
	}
	log.Printf("✅ Produit indexé dans Elasticsearch: %s", p.Name)
	return nil
}

// RemoveProduct retire un produit de l'index. Un document déjà absent n'est pas une erreur.
func (e *ElasticIndex) RemoveProduct(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{Index: e.index, DocumentID: id, Refresh: "true"}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return apperrors.Transient("elasticsearch", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return apperrors.Transient("elasticsearch", fmt.Errorf("suppression %s: %s", id, res.Status()))
	}
	return nil
}

//
// --- RECHERCHE DANS ELASTICSEARCH ---
//

type searchHits struct {
	Hits struct {
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchProductIDs renvoie les identifiants des produits correspondant à term, par pertinence.
func (e *ElasticIndex) SearchProductIDs(ctx context.Context, term string) ([]string, error) {
	var buf bytes.Buffer
	q := map[string]any{
		"size":    100,
		"_source": false,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     term,
				"fields":    []string{"name^2", "description", "category"},
				"fuzziness": "AUTO",
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("erreur encodage requête: %w", err)
	}

	req := esapi.SearchRequest{Index: []string{e.index}, Body: &buf}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, apperrors.Transient("elasticsearch", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.Transient("elasticsearch", errors.New("index non trouvé ou vide: "+res.Status()))
	}

	var r searchHits
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, apperrors.Transient("elasticsearch", fmt.Errorf("erreur décodage JSON: %w", err))
	}

	ids := make([]string, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}
