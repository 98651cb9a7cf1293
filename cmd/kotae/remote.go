package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/hyperjump/kotae/internal/models"
)

const remoteTimeout = 90 * time.Second

// remoteClient talks to a running kotae server.
type remoteClient struct {
	http *resty.Client
}

type apiError struct {
	Error string `json:"error"`
}

func newRemoteClient(baseURL string) *remoteClient {
	return &remoteClient{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(remoteTimeout).
			SetHeader("Accept", "application/json"),
	}
}

func (c *remoteClient) Answer(ctx context.Context, collectionID int64, question string) (*models.QueryResult, error) {
	var result models.QueryResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("collectionID", strconv.FormatInt(collectionID, 10)).
		SetBody(models.AnswerRequest{Question: question}).
		SetResult(&result).
		SetError(&apiError{}).
		Post("/api/v1/collections/{collectionID}/answer")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *remoteClient) Status(ctx context.Context, collectionID int64) (*models.CollectionStatus, error) {
	var status models.CollectionStatus
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("collectionID", strconv.FormatInt(collectionID, 10)).
		SetResult(&status).
		SetError(&apiError{}).
		Get("/api/v1/collections/{collectionID}/status")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &status, nil
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	if resp.IsError() {
		if e, ok := resp.Error().(*apiError); ok && e.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode(), e.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode())
	}
	return nil
}
