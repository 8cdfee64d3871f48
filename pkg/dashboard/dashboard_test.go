package dashboard

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/bmsdash/pkg/cell"
	"github.com/charlie0129/bmsdash/pkg/config"
	"github.com/charlie0129/bmsdash/pkg/events"
	"github.com/charlie0129/bmsdash/pkg/task"
)

var fixedNow = time.Date(2024, 5, 1, 12, 30, 45, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	conf := config.NewFileFromConfig(&config.RawFileConfig{}, filepath.Join(t.TempDir(), "bmsdash.json"))
	s, err := NewServer(conf, events.NewEventHub(), cell.NewGenerator(1))
	require.NoError(t, err)
	s.now = func() time.Time { return fixedNow }
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func postForm(t *testing.T, s *Server, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestCellsAPI(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/cells", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]cell.Cell](t, w))

	w = do(t, s, http.MethodPut, "/api/cells", `{"chemistries":["lfp","LFP"," lfp "]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	cells := decode[[]cell.Cell](t, w)
	require.Len(t, cells, 3)
	for i, c := range cells {
		assert.Equal(t, cell.Key(i+1, cell.LFP), c.Key)
		assert.Equal(t, 3.2, c.Voltage)
		assert.Equal(t, 2.8, c.MinVoltage)
		assert.Equal(t, 3.6, c.MaxVoltage)
	}

	w = do(t, s, http.MethodGet, "/api/summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	sum := decode[SummaryResponse](t, w)
	require.NotNil(t, sum.Summary)
	require.NotNil(t, sum.Deltas)
	assert.InDelta(t, 9.6, sum.Summary.TotalVoltage, 1e-9)
	assert.Len(t, sum.Cells, 3)

	w = do(t, s, http.MethodGet, "/api/cells/cell_2_lfp", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cell_2_lfp", decode[cell.Cell](t, w).Key)

	w = do(t, s, http.MethodGet, "/api/cells/cell_9_nmc", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPutCellsRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	tooMany := `{"chemistries":["lfp"` + strings.Repeat(`,"lfp"`, 20) + `]}`
	tests := []struct {
		name string
		body string
	}{
		{"empty", `{"chemistries":[]}`},
		{"too many", tooMany},
		{"unknown chemistry", `{"chemistries":["lfp","nicd"]}`},
		{"malformed", `{"chemistries":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPut, "/api/cells", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Empty(t, s.Session().Cells())
}

func TestSummaryWithoutCells(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	sum := decode[SummaryResponse](t, w)
	assert.Nil(t, sum.Summary)
	assert.Nil(t, sum.Deltas)
	assert.Empty(t, sum.Cells)
}

func TestTasksAPI(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/tasks", `{"task_type":"cc-cv","cc_cp":"5A","cv_voltage":4.2,"current":2,"capacity":10,"time_seconds":60,"voltage":3}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	added := decode[task.Task](t, w)
	assert.Equal(t, "task_1", added.Key)
	assert.Equal(t, task.CCCV, added.Type)
	assert.Zero(t, added.Voltage)

	w = do(t, s, http.MethodPost, "/api/tasks", `{"task_type":"IDLE","time_seconds":30}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, s, http.MethodPost, "/api/tasks", `{"task_type":"IDLE","time_seconds":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/api/tasks", `{"task_type":"PULSE","time_seconds":5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/api/task-types", "")
	assert.Equal(t, []task.Type{task.CCCV, task.Idle}, decode[[]task.Type](t, w))

	w = do(t, s, http.MethodPost, "/api/tasks/task_2/start", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Task task_2 started!", decode[string](t, w))

	w = do(t, s, http.MethodPost, "/api/tasks/task_9/start", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodDelete, "/api/tasks/task_1", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodDelete, "/api/tasks/task_1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodGet, "/api/tasks", "")
	tasks := decode[[]task.Task](t, w)
	require.Len(t, tasks, 1)
	assert.Equal(t, "task_2", tasks[0].Key)

	w = do(t, s, http.MethodGet, "/api/task-types", "")
	assert.Equal(t, []task.Type{task.Idle}, decode[[]task.Type](t, w))
}

func TestChemistries(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/chemistries", "")
	require.Equal(t, http.StatusOK, w.Code)
	infos := decode[[]ChemistryInfo](t, w)
	require.Len(t, infos, 3)
	assert.Equal(t, "lfp", infos[0].Name)
	assert.Equal(t, 3.2, infos[0].Nominal)
	assert.Equal(t, "lto", infos[2].Name)
	assert.Equal(t, 4.0, infos[2].Max)
}

func TestExports(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/export/cells.csv", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/export/tasks.csv", "").Code)

	_, err := s.Session().InitializeCells([]cell.Chemistry{cell.LFP, cell.NMC})
	require.NoError(t, err)
	_, err = s.Session().AddTask(task.Task{Type: task.Idle, TimeSeconds: 5})
	require.NoError(t, err)

	w := do(t, s, http.MethodGet, "/export/cells.csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="cell_data_20240501_123045.csv"`)
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "key,voltage,current,temp,capacity,min_voltage,max_voltage,health,cycles", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "cell_1_lfp,3.2,"))
	assert.True(t, strings.HasPrefix(lines[2], "cell_2_nmc,3.6,"))

	w = do(t, s, http.MethodGet, "/export/tasks.csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="task_data_20240501_123045.csv"`)
	assert.Contains(t, w.Body.String(), "task_1,IDLE,")
}

func TestCharts(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/charts/voltage", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/charts/temperature/cell_1_lfp", "").Code)

	_, err := s.Session().InitializeCells([]cell.Chemistry{cell.LFP})
	require.NoError(t, err)

	w := do(t, s, http.MethodGet, "/charts/voltage", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Real-time Voltage Monitoring")

	w = do(t, s, http.MethodGet, "/charts/temperature/cell_1_lfp", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Temperature (°C)")
}

func TestIndexPage(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Battery Management System")
	assert.NotContains(t, body, `http-equiv="refresh"`)
	assert.NotContains(t, body, "Total Voltage")
	assert.NotContains(t, body, "Data Export")
	// Three selectors by default.
	assert.Equal(t, 3, strings.Count(body, `name="chemistry"`))

	_, err := s.Session().InitializeCells([]cell.Chemistry{cell.LFP, cell.NMC})
	require.NoError(t, err)
	_, err = s.Session().AddTask(task.Task{Type: task.CCCD, CCCP: "10W", Voltage: 3, Capacity: 2, TimeSeconds: 9})
	require.NoError(t, err)

	w = do(t, s, http.MethodGet, "/?refresh=10&msg=hello", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = w.Body.String()
	assert.Contains(t, body, `<meta http-equiv="refresh" content="10">`)
	assert.Contains(t, body, "hello")
	assert.Contains(t, body, "Total Voltage")
	assert.Contains(t, body, "6.80 V")
	assert.Contains(t, body, "Cell 2 Nmc")
	assert.Contains(t, body, "Range: 3.2V - 4.0V")
	assert.Contains(t, body, "Task 1 - Constant Current Discharge")
	assert.Contains(t, body, "10 W (power)")
	assert.Contains(t, body, "/export/cells.csv")
	assert.Contains(t, body, "/export/tasks.csv")
	assert.Equal(t, 2, strings.Count(body, `name="chemistry"`))

	w = do(t, s, http.MethodGet, "/?refresh=7&count=5&type=idle", "")
	body = w.Body.String()
	assert.NotContains(t, body, `http-equiv="refresh"`)
	assert.Equal(t, 5, strings.Count(body, `name="chemistry"`))
	assert.NotContains(t, body, `name="cc_cp"`)
}

func TestUIForms(t *testing.T) {
	s := newTestServer(t)

	w := postForm(t, s, "/ui/cells", url.Values{
		"count":     {"2"},
		"chemistry": {"nmc", "lto"},
		"refresh":   {"30"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "30", loc.Query().Get("refresh"))
	assert.Equal(t, "✅ Cells initialized successfully!", loc.Query().Get("msg"))

	cells := s.Session().Cells()
	require.Len(t, cells, 2)
	assert.Equal(t, "cell_1_nmc", cells[0].Key)
	assert.Equal(t, "cell_2_lto", cells[1].Key)

	// Missing selectors fall back to the default chemistry.
	w = postForm(t, s, "/ui/cells", url.Values{"count": {"3"}, "chemistry": {"nmc"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	cells = s.Session().Cells()
	require.Len(t, cells, 3)
	assert.Equal(t, "cell_3_lfp", cells[2].Key)

	w = postForm(t, s, "/ui/cells", url.Values{"count": {"21"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	loc, _ = url.Parse(w.Header().Get("Location"))
	assert.NotEmpty(t, loc.Query().Get("error"))
	assert.Len(t, s.Session().Cells(), 3)

	w = postForm(t, s, "/ui/tasks", url.Values{
		"task_type":    {"CC_CV"},
		"cc_cp":        {"5A"},
		"cv_voltage":   {"4.2"},
		"current":      {""},
		"time_seconds": {"60"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	loc, _ = url.Parse(w.Header().Get("Location"))
	assert.Equal(t, "✅ Task task_1 added successfully!", loc.Query().Get("msg"))
	tk, err := s.Session().Task("task_1")
	require.NoError(t, err)
	assert.Equal(t, 4.2, tk.CVVoltage)
	assert.Equal(t, 60, tk.TimeSeconds)

	// Non-finite numbers are rejected and leave the task list readable.
	w = postForm(t, s, "/ui/tasks", url.Values{
		"task_type":    {"CC_CV"},
		"cv_voltage":   {"NaN"},
		"current":      {"+Inf"},
		"time_seconds": {"60"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	loc, _ = url.Parse(w.Header().Get("Location"))
	assert.NotEmpty(t, loc.Query().Get("error"))
	assert.Len(t, s.Session().Tasks(), 1)
	w = do(t, s, http.MethodGet, "/api/tasks", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]task.Task](t, w), 1)

	w = postForm(t, s, "/ui/tasks/task_1/start", nil)
	loc, _ = url.Parse(w.Header().Get("Location"))
	assert.Equal(t, "Task task_1 started!", loc.Query().Get("msg"))

	w = postForm(t, s, "/ui/tasks/task_1/delete", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Empty(t, s.Session().Tasks())

	w = postForm(t, s, "/ui/tasks/task_1/delete", nil)
	loc, _ = url.Parse(w.Header().Get("Location"))
	assert.NotEmpty(t, loc.Query().Get("error"))
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t)

	_, err := s.Session().InitializeCells([]cell.Chemistry{cell.LFP, cell.LFP, cell.NMC})
	require.NoError(t, err)
	_, err = s.Session().AddTask(task.Task{Type: task.Idle, TimeSeconds: 1})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.events.WithLabelValues(events.CellsInitialized)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.events.WithLabelValues(events.TaskAdded)))

	w := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "bmsdash_cells 3")
	assert.Contains(t, body, `bmsdash_tasks{type="IDLE"} 1`)
	assert.Contains(t, body, `bmsdash_cell_voltage_volts{cell="cell_3_nmc",chemistry="nmc"} 3.6`)
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/version", "")
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	req.Header.Set(requestIDHeader, "abc")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(requestIDHeader))
}

func TestConfigEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPut, "/config/default-cell-count", "5")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = do(t, s, http.MethodPut, "/config/default-cell-count", "0")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPut, "/config/default-chemistry", `"NMC"`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = do(t, s, http.MethodPut, "/config/default-chemistry", `"nicd"`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/config", "")
	require.Equal(t, http.StatusOK, w.Code)
	raw := decode[config.RawFileConfig](t, w)
	assert.Equal(t, 5, *raw.DefaultCellCount)
	assert.Equal(t, "nmc", *raw.DefaultChemistry)
}

func TestEventStream(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	_, err = s.Session().AddTask(task.Task{Type: task.Idle, TimeSeconds: 3})
	require.NoError(t, err)

	sc := bufio.NewScanner(resp.Body)
	var name, data string
	for sc.Scan() {
		line := sc.Text()
		if v, ok := strings.CutPrefix(line, "event:"); ok {
			name = v
		}
		if v, ok := strings.CutPrefix(line, "data:"); ok {
			data = v
			break
		}
	}
	require.Equal(t, events.TaskAdded, name)

	payload, err := events.DecodeAs[events.TaskEvent](events.Event{Name: name, Data: json.RawMessage(data)})
	require.NoError(t, err)
	assert.Equal(t, "task_1", payload.Key)
	assert.Equal(t, "IDLE", payload.Type)
}

func TestBrowsableAddr(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0.0.0.0:8765", "127.0.0.1:8765"},
		{"[::]:8765", "127.0.0.1:8765"},
		{"192.168.1.2:80", "192.168.1.2:80"},
		{"garbage", "garbage"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, browsableAddr(tt.in))
	}
}
