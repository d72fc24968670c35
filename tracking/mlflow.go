package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/probloan/loantrain/pkg/errors"
)

const apiPrefix = "/api/2.0/mlflow"

// HTTPClient implements Client against the MLflow REST API. The experiment is
// resolved once at construction; every later call is scoped to it.
type HTTPClient struct {
	baseURL      string
	experimentID string
	http         *http.Client
}

// NewHTTPClient connects to the tracking server at trackingURI and resolves
// (or creates) the named experiment.
func NewHTTPClient(ctx context.Context, trackingURI, experimentName string) (*HTTPClient, error) {
	c := &HTTPClient{
		baseURL: strings.TrimRight(trackingURI, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}

	id, err := c.experimentByName(ctx, experimentName)
	if err == nil {
		c.experimentID = id
		return c, nil
	}
	if !isErrorCode(err, "RESOURCE_DOES_NOT_EXIST") {
		return nil, err
	}

	var created struct {
		ExperimentID string `json:"experiment_id"`
	}
	if err := c.post(ctx, "/experiments/create",
		map[string]any{"name": experimentName}, &created); err != nil {
		return nil, err
	}
	c.experimentID = created.ExperimentID
	return c, nil
}

// apiError is the MLflow REST error envelope.
type apiError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("mlflow: %s: %s", e.Code, e.Message)
}

func isErrorCode(err error, code string) bool {
	var apiErr *apiError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "tracking request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "tracking %s %s", method, path)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "tracking response")
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Code != "" {
			return errors.WithStack(&apiErr)
		}
		return errors.Newf("tracking %s %s: status %d: %s", method, path, resp.StatusCode, payload)
	}

	if out != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, out); err != nil {
			return errors.Wrap(err, "tracking response decode")
		}
	}
	return nil
}

func (c *HTTPClient) post(ctx context.Context, endpoint string, body any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "tracking request encode")
	}
	return c.do(ctx, http.MethodPost, apiPrefix+endpoint, bytes.NewReader(encoded), "application/json", out)
}

func (c *HTTPClient) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	path := apiPrefix + endpoint
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

func (c *HTTPClient) experimentByName(ctx context.Context, name string) (string, error) {
	var got struct {
		Experiment struct {
			ExperimentID string `json:"experiment_id"`
		} `json:"experiment"`
	}
	query := url.Values{"experiment_name": {name}}
	if err := c.get(ctx, "/experiments/get-by-name", query, &got); err != nil {
		return "", err
	}
	return got.Experiment.ExperimentID, nil
}

// wire types shared by the run endpoints

type wireKV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type wireMetric struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

type wireRun struct {
	Info struct {
		RunID     string `json:"run_id"`
		StartTime int64  `json:"start_time"`
	} `json:"info"`
	Data struct {
		Metrics []wireMetric `json:"metrics"`
		Params  []wireKV     `json:"params"`
	} `json:"data"`
}

func (w wireRun) toRun() Run {
	run := Run{
		ID:        w.Info.RunID,
		StartTime: w.Info.StartTime,
		Metrics:   make(map[string]float64, len(w.Data.Metrics)),
		Params:    make(map[string]string, len(w.Data.Params)),
	}
	for _, m := range w.Data.Metrics {
		run.Metrics[m.Key] = m.Value
	}
	for _, p := range w.Data.Params {
		run.Params[p.Key] = p.Value
	}
	return run
}

// SearchRuns queries the experiment's run history.
func (c *HTTPClient) SearchRuns(ctx context.Context, filter string, orderBy []string) ([]Run, error) {
	var got struct {
		Runs []wireRun `json:"runs"`
	}
	body := map[string]any{
		"experiment_ids": []string{c.experimentID},
		"filter":         filter,
		"order_by":       orderBy,
		"max_results":    1000,
	}
	if err := c.post(ctx, "/runs/search", body, &got); err != nil {
		return nil, err
	}

	runs := make([]Run, 0, len(got.Runs))
	for _, w := range got.Runs {
		runs = append(runs, w.toRun())
	}
	return runs, nil
}

// CreateRun starts a new named run in the experiment.
func (c *HTTPClient) CreateRun(ctx context.Context, runName string) (string, error) {
	var got struct {
		Run wireRun `json:"run"`
	}
	body := map[string]any{
		"experiment_id": c.experimentID,
		"run_name":      runName,
		"start_time":    time.Now().UnixMilli(),
		"tags":          []wireKV{{Key: "mlflow.runName", Value: runName}},
	}
	if err := c.post(ctx, "/runs/create", body, &got); err != nil {
		return "", err
	}
	return got.Run.Info.RunID, nil
}

// EndRun finalizes a run.
func (c *HTTPClient) EndRun(ctx context.Context, runID string, status RunStatus) error {
	body := map[string]any{
		"run_id":   runID,
		"status":   string(status),
		"end_time": time.Now().UnixMilli(),
	}
	return c.post(ctx, "/runs/update", body, nil)
}

// LogMetric records a scalar metric on a run.
func (c *HTTPClient) LogMetric(ctx context.Context, runID, key string, value float64) error {
	body := map[string]any{
		"run_id":    runID,
		"key":       key,
		"value":     value,
		"timestamp": time.Now().UnixMilli(),
		"step":      0,
	}
	return c.post(ctx, "/runs/log-metric", body, nil)
}

// SetTag records a tag on a run.
func (c *HTTPClient) SetTag(ctx context.Context, runID, key, value string) error {
	body := map[string]any{"run_id": runID, "key": key, "value": value}
	return c.post(ctx, "/runs/set-tag", body, nil)
}

// UploadArtifact stores data under the run's artifact root via the
// mlflow-artifacts proxy.
func (c *HTTPClient) UploadArtifact(ctx context.Context, runID, path string, data []byte) error {
	endpoint := fmt.Sprintf("/api/2.0/mlflow-artifacts/artifacts/%s/%s/artifacts/%s",
		c.experimentID, runID, path)
	return c.do(ctx, http.MethodPut, endpoint, bytes.NewReader(data), "application/octet-stream", nil)
}

// artifactURI is the source recorded on registered model versions.
func (c *HTTPClient) artifactURI(runID, path string) string {
	return fmt.Sprintf("mlflow-artifacts:/%s/%s/artifacts/%s", c.experimentID, runID, path)
}

// RegisterModel ensures the registered model exists and creates a new version
// from the run's uploaded artifact.
func (c *HTTPClient) RegisterModel(ctx context.Context, name, runID, artifactPath string) (ModelVersion, error) {
	err := c.post(ctx, "/registered-models/create", map[string]any{"name": name}, nil)
	if err != nil && !isErrorCode(err, "RESOURCE_ALREADY_EXISTS") {
		return ModelVersion{}, err
	}

	var got struct {
		ModelVersion struct {
			Name         string `json:"name"`
			Version      string `json:"version"`
			RunID        string `json:"run_id"`
			CreationTime int64  `json:"creation_timestamp"`
		} `json:"model_version"`
	}
	body := map[string]any{
		"name":   name,
		"run_id": runID,
		"source": c.artifactURI(runID, artifactPath),
	}
	if err := c.post(ctx, "/model-versions/create", body, &got); err != nil {
		return ModelVersion{}, err
	}

	return ModelVersion{
		Name:         got.ModelVersion.Name,
		Version:      got.ModelVersion.Version,
		RunID:        got.ModelVersion.RunID,
		CreationTime: got.ModelVersion.CreationTime,
	}, nil
}

// ModelVersions lists every version of a registered model.
func (c *HTTPClient) ModelVersions(ctx context.Context, name string) ([]ModelVersion, error) {
	var got struct {
		ModelVersions []struct {
			Name         string `json:"name"`
			Version      string `json:"version"`
			RunID        string `json:"run_id"`
			CreationTime int64  `json:"creation_timestamp"`
		} `json:"model_versions"`
	}
	query := url.Values{"filter": {fmt.Sprintf("name='%s'", name)}}
	if err := c.get(ctx, "/model-versions/search", query, &got); err != nil {
		return nil, err
	}

	versions := make([]ModelVersion, 0, len(got.ModelVersions))
	for _, v := range got.ModelVersions {
		versions = append(versions, ModelVersion{
			Name:         v.Name,
			Version:      v.Version,
			RunID:        v.RunID,
			CreationTime: v.CreationTime,
		})
	}
	return versions, nil
}

// SetModelAlias points alias at a specific version of the registered model.
func (c *HTTPClient) SetModelAlias(ctx context.Context, name, alias, version string) error {
	body := map[string]any{"name": name, "alias": alias, "version": version}
	return c.post(ctx, "/registered-models/alias", body, nil)
}
