package dashboard

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/bmsdash/pkg/cell"
	"github.com/charlie0129/bmsdash/pkg/chart"
	"github.com/charlie0129/bmsdash/pkg/config"
	"github.com/charlie0129/bmsdash/pkg/export"
	"github.com/charlie0129/bmsdash/pkg/session"
	"github.com/charlie0129/bmsdash/pkg/task"
	"github.com/charlie0129/bmsdash/pkg/version"
)

// ChemistryInfo describes a chemistry preset.
type ChemistryInfo struct {
	Name string `json:"name"`
	cell.Preset
}

// InitCellsRequest is the body of PUT /api/cells.
type InitCellsRequest struct {
	Chemistries []cell.Chemistry `json:"chemistries" binding:"required"`
}

// SummaryResponse is the body of GET /api/summary. Summary and Deltas are
// nil when there are no cells.
type SummaryResponse struct {
	Summary *cell.Summary `json:"summary,omitempty"`
	Deltas  *cell.Deltas  `json:"deltas,omitempty"`
	Cells   []cell.Cell   `json:"cells"`
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}

func (s *Server) getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(s.conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func (s *Server) setDefaultCellCount(c *gin.Context) {
	var n int
	if err := c.BindJSON(&n); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if n < session.MinCells || n > session.MaxCells {
		err := fmt.Errorf("default cell count must be between %d and %d, got %d", session.MinCells, session.MaxCells, n)
		abort(c, http.StatusBadRequest, err)
		return
	}

	s.conf.SetDefaultCellCount(n)
	if err := s.conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		abort(c, http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set default cell count to %d", n)

	c.IndentedJSON(http.StatusCreated, fmt.Sprintf("set default cell count to %d", n))
}

func (s *Server) setDefaultChemistry(c *gin.Context) {
	var raw string
	if err := c.BindJSON(&raw); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	chem, err := cell.ParseChemistry(raw)
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	s.conf.SetDefaultChemistry(chem.String())
	if err := s.conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		abort(c, http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set default chemistry to %s", chem)

	c.IndentedJSON(http.StatusCreated, fmt.Sprintf("set default chemistry to %s", chem))
}

func (s *Server) getChemistries(c *gin.Context) {
	var out []ChemistryInfo
	for _, chem := range cell.Chemistries() {
		out = append(out, ChemistryInfo{Name: chem.String(), Preset: chem.Preset()})
	}
	c.IndentedJSON(http.StatusOK, out)
}

func (s *Server) getCells(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.sess.Cells())
}

func (s *Server) putCells(c *gin.Context) {
	var req InitCellsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	cells, err := s.sess.InitializeCells(req.Chemistries)
	if err != nil {
		abort(c, statusOf(err), err)
		return
	}

	c.IndentedJSON(http.StatusCreated, cells)
}

func (s *Server) getCell(c *gin.Context) {
	ce, err := s.sess.Cell(c.Param("key"))
	if err != nil {
		abort(c, statusOf(err), err)
		return
	}
	c.IndentedJSON(http.StatusOK, ce)
}

func (s *Server) getSummary(c *gin.Context) {
	resp := SummaryResponse{Cells: s.sess.Cells()}
	if sum, ok := s.sess.Summary(); ok {
		d := s.gen.Deltas()
		resp.Summary = &sum
		resp.Deltas = &d
	}
	c.IndentedJSON(http.StatusOK, resp)
}

func (s *Server) getTasks(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.sess.Tasks())
}

func (s *Server) postTask(c *gin.Context) {
	var t task.Task
	if err := c.ShouldBindJSON(&t); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	added, err := s.sess.AddTask(t)
	if err != nil {
		abort(c, statusOf(err), err)
		return
	}

	c.IndentedJSON(http.StatusCreated, added)
}

func (s *Server) deleteTask(c *gin.Context) {
	t, err := s.sess.DeleteTask(c.Param("key"))
	if err != nil {
		abort(c, statusOf(err), err)
		return
	}
	c.IndentedJSON(http.StatusOK, t)
}

func (s *Server) startTask(c *gin.Context) {
	t, err := s.sess.StartTask(c.Param("key"))
	if err != nil {
		abort(c, statusOf(err), err)
		return
	}
	c.IndentedJSON(http.StatusOK, startedMessage(t))
}

func (s *Server) getTaskTypes(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.sess.TaskTypes())
}

func startedMessage(t task.Task) string {
	return fmt.Sprintf("Task %s started!", t.Key)
}

func addedMessage(t task.Task) string {
	return fmt.Sprintf("✅ Task %s added successfully!", t.Key)
}

func (s *Server) getVoltageChart(c *gin.Context) {
	cells := s.sess.Cells()
	if len(cells) == 0 {
		abort(c, http.StatusNotFound, pkgerrors.New("no cells initialized"))
		return
	}
	s.renderChart(c, func(w io.Writer) error {
		return chart.RenderVoltage(w, s.gen.VoltageTraces(cells))
	})
}

func (s *Server) getTemperatureChart(c *gin.Context) {
	ce, err := s.sess.Cell(c.Param("key"))
	if err != nil {
		abort(c, statusOf(err), err)
		return
	}
	s.renderChart(c, func(w io.Writer) error {
		return chart.RenderTemperature(w, ce)
	})
}

// renderChart buffers the document so a render failure still yields a clean 500.
func (s *Server) renderChart(c *gin.Context, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		abort(c, http.StatusInternalServerError, pkgerrors.Wrapf(err, "failed to render chart"))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) getCellsCSV(c *gin.Context) {
	cells := s.sess.Cells()
	if len(cells) == 0 {
		abort(c, http.StatusNotFound, pkgerrors.New("no cell data to export"))
		return
	}
	s.sendCSV(c, export.CellsPrefix, func(w io.Writer) error {
		return export.WriteCellsCSV(w, cells)
	})
}

func (s *Server) getTasksCSV(c *gin.Context) {
	tasks := s.sess.Tasks()
	if len(tasks) == 0 {
		abort(c, http.StatusNotFound, pkgerrors.New("no task data to export"))
		return
	}
	s.sendCSV(c, export.TasksPrefix, func(w io.Writer) error {
		return export.WriteTasksCSV(w, tasks)
	})
}

func (s *Server) sendCSV(c *gin.Context, prefix string, write func(io.Writer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	name := export.Filename(prefix, s.now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// getEvents streams session events until the client goes away.
func (s *Server) getEvents(c *gin.Context) {
	ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(ch)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(_ io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case e, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(e.Name, string(e.Data))
			return true
		}
	})
}
