package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/taskhub/taskhub/internal/models"
)

const TaskIndex = "tasks"

// Tasks runs a fuzzy title/description search scoped to one user's documents.
func Tasks(ctx context.Context, es *elasticsearch.Client, userID uint, query string, from, size int) (int64, []models.Task, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":     query,
						"fields":    []string{"title^2", "description"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"user_id": userID},
				},
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(TaskIndex),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 }          `json:"total"`
			Hits  []struct{ Source models.Task } `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	tasks := make([]models.Task, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		tasks[i] = hit.Source
	}
	return r.Hits.Total.Value, tasks, nil
}

// IndexTask mirrors a task into the search index. Failures are the caller's
// to log; the primary store stays authoritative.
func IndexTask(ctx context.Context, es *elasticsearch.Client, task *models.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}

	res, err := es.Index(
		TaskIndex,
		bytes.NewReader(data),
		es.Index.WithContext(ctx),
		es.Index.WithDocumentID(strconv.FormatUint(uint64(task.ID), 10)),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index task: %s", res.Status())
	}
	return nil
}

// DeleteTask removes a task document from the index.
func DeleteTask(ctx context.Context, es *elasticsearch.Client, taskID uint) error {
	res, err := es.Delete(
		TaskIndex,
		strconv.FormatUint(uint64(taskID), 10),
		es.Delete.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	// deleting an unindexed document is fine
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete task: %s", res.Status())
	}
	return nil
}
