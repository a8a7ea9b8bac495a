// internal/catalog/index.go
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"loan-conditions-engine/internal/common/logger"
	"loan-conditions-engine/internal/models"
)

// Indexer mirrors the loaded catalog into Elasticsearch so operations staff
// can search conditions outside the engine. Indexing is strictly fail-soft:
// a broken or absent cluster degrades search, never evaluation.
type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewIndexer(client *elasticsearch.Client, index string, log logger.Logger) *Indexer {
	return &Indexer{client: client, index: index, logger: log}
}

type indexedCondition struct {
	Code          string   `json:"code"`
	Stage         string   `json:"stage"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	RuleText      string   `json:"ruleText"`
	Category      string   `json:"category"`
	ClassTag      string   `json:"classTag"`
	LoanTypes     []string `json:"loanTypes"`
	Unconstrained bool     `json:"unconstrained"`
}

// IndexCatalog writes every condition as one document, keyed by code so a
// reload overwrites the previous generation in place.
func (ix *Indexer) IndexCatalog(ctx context.Context, conditions []*models.Condition) {
	if ix.client == nil {
		return
	}

	indexed := 0
	for _, cond := range conditions {
		if err := ix.indexOne(ctx, cond); err != nil {
			ix.logger.Warn("failed to index condition", map[string]interface{}{
				"condition_code": cond.Code,
				"error":          err.Error(),
			})
			continue
		}
		indexed++
	}
	ix.logger.Info("catalog indexed for search", map[string]interface{}{
		"index":   ix.index,
		"indexed": indexed,
		"total":   len(conditions),
	})
}

func (ix *Indexer) indexOne(ctx context.Context, cond *models.Condition) error {
	doc := indexedCondition{
		Code:          cond.Code,
		Stage:         string(cond.Stage),
		Name:          cond.Name,
		Description:   cond.DescriptionTemplate,
		RuleText:      cond.RuleText,
		Category:      cond.Category,
		ClassTag:      cond.ClassTag,
		Unconstrained: !cond.SupportedLoanTypes.Constrained,
	}
	for _, lt := range cond.SupportedLoanTypes.Slice() {
		doc.LoanTypes = append(doc.LoanTypes, string(lt))
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	res, err := ix.client.Index(
		ix.index,
		bytes.NewReader(body),
		ix.client.Index.WithDocumentID(cond.Code),
		ix.client.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index response: %s", res.Status())
	}
	return nil
}
