package dashboard

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/charlie0129/bmsdash/pkg/cell"
	"github.com/charlie0129/bmsdash/pkg/session"
	"github.com/charlie0129/bmsdash/pkg/task"
	"github.com/charlie0129/bmsdash/pkg/version"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("").Funcs(template.FuncMap{
	"signed": func(places int, v float64) string {
		return fmt.Sprintf("%+.*f", places, v)
	},
	"deltaClass": func(v float64) string {
		if v < 0 {
			return "down"
		}
		return "up"
	},
	"percent": func(f float64) string {
		return fmt.Sprintf("%.0f", f*100)
	},
	"num": func(f float64) string {
		return strconv.FormatFloat(f, 'f', -1, 64)
	},
}).ParseFS(templateFS, "templates/*.html"))

type cellSlot struct {
	Index    int
	Selected cell.Chemistry
}

type cellView struct {
	cell.Cell
	Name     string
	Fraction float64
	Band     cell.TempBand
}

type taskView struct {
	task.Task
	Name        string
	Description string
	Icon        string
	// SetpointText is the parsed CC/CP value, empty if it does not parse.
	SetpointText string
}

type pageData struct {
	Version string
	Message string
	Error   string

	Refresh          int
	RefreshIntervals []int

	CellCount   int
	MaxCells    int
	CellSlots   []cellSlot
	Chemistries []cell.Chemistry

	Summary *cell.Summary
	Deltas  cell.Deltas
	Cells   []cellView
	// Stamp changes on every render so chart frames are not served from cache.
	Stamp int64

	Types      []task.Type
	FormType   task.Type
	FormFields map[string]bool
	Tasks      []taskView
	TaskTypes  []task.Type
}

func taskIcon(t task.Type) string {
	switch t {
	case task.CCCV:
		return "🔋"
	case task.Idle:
		return "⏸️"
	case task.CCCD:
		return "🔽"
	}
	return "📋"
}

// refreshOf returns the requested auto refresh interval, or 0 if it is not
// one of the configured choices.
func (s *Server) refreshOf(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	if !slices.Contains(s.conf.RefreshIntervals(), n) {
		return 0
	}
	return n
}

func (s *Server) getIndex(c *gin.Context) {
	cells := s.sess.Cells()

	data := pageData{
		Version:          version.Version,
		Message:          c.Query("msg"),
		Error:            c.Query("error"),
		Refresh:          s.refreshOf(c.Query("refresh")),
		RefreshIntervals: s.conf.RefreshIntervals(),
		MaxCells:         session.MaxCells,
		Chemistries:      cell.Chemistries(),
		Stamp:            s.now().UnixNano(),
		Types:            task.Types(),
		FormType:         task.CCCV,
		TaskTypes:        s.sess.TaskTypes(),
	}

	data.CellCount = s.conf.DefaultCellCount()
	if len(cells) > 0 {
		data.CellCount = len(cells)
	}
	if n, err := strconv.Atoi(c.Query("count")); err == nil && n >= session.MinCells && n <= session.MaxCells {
		data.CellCount = n
	}

	defaultChem, err := cell.ParseChemistry(s.conf.DefaultChemistry())
	if err != nil {
		defaultChem = cell.LFP
	}
	for i := 0; i < data.CellCount; i++ {
		slot := cellSlot{Index: i + 1, Selected: defaultChem}
		if i < len(cells) {
			slot.Selected = cells[i].Chemistry
		}
		data.CellSlots = append(data.CellSlots, slot)
	}

	if sum, ok := s.sess.Summary(); ok {
		data.Summary = &sum
		data.Deltas = s.gen.Deltas()
	}
	for _, ce := range cells {
		data.Cells = append(data.Cells, cellView{
			Cell:     ce,
			Name:     ce.DisplayName(),
			Fraction: ce.VoltageFraction(),
			Band:     cell.TempBandOf(ce.Temperature),
		})
	}

	if t, err := task.ParseType(c.Query("type")); err == nil {
		data.FormType = t
	}
	data.FormFields = map[string]bool{}
	for _, f := range data.FormType.Fields() {
		data.FormFields[f] = true
	}

	for _, t := range s.sess.Tasks() {
		v := taskView{
			Task:        t,
			Name:        t.DisplayName(),
			Description: t.Type.Description(),
			Icon:        taskIcon(t.Type),
		}
		if sp, ok := t.Setpoint(); ok {
			v.SetpointText = fmt.Sprintf("%s (%s)", sp, sp.Mode)
		}
		data.Tasks = append(data.Tasks, v)
	}

	c.HTML(http.StatusOK, "index.html", data)
}

// redirectHome sends the browser back to the page, keeping the refresh
// interval and showing msg (or errMsg) once.
func (s *Server) redirectHome(c *gin.Context, msg, errMsg string) {
	q := url.Values{}
	if r := s.refreshOf(c.PostForm("refresh")); r > 0 {
		q.Set("refresh", strconv.Itoa(r))
	}
	if msg != "" {
		q.Set("msg", msg)
	}
	if errMsg != "" {
		q.Set("error", errMsg)
	}
	target := "/"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	c.Redirect(http.StatusSeeOther, target)
}

func (s *Server) postUICells(c *gin.Context) {
	chems := c.PostFormArray("chemistry")

	count := len(chems)
	if raw := c.PostForm("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.redirectHome(c, "", fmt.Sprintf("invalid number of cells %q", raw))
			return
		}
		count = n
	}

	if count < session.MinCells || count > session.MaxCells {
		s.redirectHome(c, "", fmt.Sprintf("Number of Cells must be between %d and %d, got %d", session.MinCells, session.MaxCells, count))
		return
	}

	// The form may carry fewer selectors than the requested count.
	parsed := make([]cell.Chemistry, 0, count)
	for i := 0; i < count; i++ {
		raw := s.conf.DefaultChemistry()
		if i < len(chems) {
			raw = chems[i]
		}
		parsed = append(parsed, cell.Chemistry(raw))
	}

	if _, err := s.sess.InitializeCells(parsed); err != nil {
		s.redirectHome(c, "", err.Error())
		return
	}
	s.redirectHome(c, "✅ Cells initialized successfully!", "")
}

func (s *Server) postUITask(c *gin.Context) {
	var t task.Task
	if err := c.ShouldBind(&t); err != nil {
		s.redirectHome(c, "", err.Error())
		return
	}

	added, err := s.sess.AddTask(t)
	if err != nil {
		s.redirectHome(c, "", err.Error())
		return
	}
	s.redirectHome(c, addedMessage(added), "")
}

func (s *Server) postUITaskStart(c *gin.Context) {
	t, err := s.sess.StartTask(c.Param("key"))
	if err != nil {
		s.redirectHome(c, "", err.Error())
		return
	}
	s.redirectHome(c, startedMessage(t), "")
}

func (s *Server) postUITaskDelete(c *gin.Context) {
	if _, err := s.sess.DeleteTask(c.Param("key")); err != nil {
		s.redirectHome(c, "", err.Error())
		return
	}
	s.redirectHome(c, "", "")
}
