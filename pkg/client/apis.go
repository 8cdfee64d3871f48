package client

import (
	"encoding/json"
	"net/url"
	"strconv"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/bmsdash/pkg/cell"
	"github.com/charlie0129/bmsdash/pkg/config"
	"github.com/charlie0129/bmsdash/pkg/dashboard"
	"github.com/charlie0129/bmsdash/pkg/task"
)

func (c *Client) GetChemistries() ([]dashboard.ChemistryInfo, error) {
	ret, err := c.Get("/api/chemistries")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get chemistries")
	}

	var out []dashboard.ChemistryInfo
	if err := json.Unmarshal([]byte(ret), &out); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal chemistries")
	}
	return out, nil
}

func (c *Client) InitCells(chems []string) ([]cell.Cell, error) {
	req := dashboard.InitCellsRequest{}
	for _, ch := range chems {
		req.Chemistries = append(req.Chemistries, cell.Chemistry(ch))
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	ret, err := c.Put("/api/cells", string(payload))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to initialize cells")
	}

	var cells []cell.Cell
	if err := json.Unmarshal([]byte(ret), &cells); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal cells")
	}
	return cells, nil
}

func (c *Client) GetCells() ([]cell.Cell, error) {
	ret, err := c.Get("/api/cells")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get cells")
	}

	var cells []cell.Cell
	if err := json.Unmarshal([]byte(ret), &cells); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal cells")
	}
	return cells, nil
}

func (c *Client) GetCell(key string) (*cell.Cell, error) {
	ret, err := c.Get("/api/cells/" + url.PathEscape(key))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get cell %s", key)
	}

	var ce cell.Cell
	if err := json.Unmarshal([]byte(ret), &ce); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal cell")
	}
	return &ce, nil
}

func (c *Client) GetSummary() (*dashboard.SummaryResponse, error) {
	ret, err := c.Get("/api/summary")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get summary")
	}

	var sum dashboard.SummaryResponse
	if err := json.Unmarshal([]byte(ret), &sum); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal summary")
	}
	return &sum, nil
}

func (c *Client) GetTasks() ([]task.Task, error) {
	ret, err := c.Get("/api/tasks")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get tasks")
	}

	var tasks []task.Task
	if err := json.Unmarshal([]byte(ret), &tasks); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal tasks")
	}
	return tasks, nil
}

func (c *Client) AddTask(t task.Task) (*task.Task, error) {
	payload, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}

	ret, err := c.Post("/api/tasks", string(payload))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to add task")
	}

	var added task.Task
	if err := json.Unmarshal([]byte(ret), &added); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal task")
	}
	return &added, nil
}

func (c *Client) StartTask(key string) (string, error) {
	ret, err := c.Post("/api/tasks/"+url.PathEscape(key)+"/start", "")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to start task %s", key)
	}
	return unquote(ret), nil
}

func (c *Client) DeleteTask(key string) (*task.Task, error) {
	ret, err := c.Delete("/api/tasks/" + url.PathEscape(key))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to delete task %s", key)
	}

	var t task.Task
	if err := json.Unmarshal([]byte(ret), &t); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal task")
	}
	return &t, nil
}

func (c *Client) GetTaskTypes() ([]task.Type, error) {
	ret, err := c.Get("/api/task-types")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get task types")
	}

	var types []task.Type
	if err := json.Unmarshal([]byte(ret), &types); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal task types")
	}
	return types, nil
}

func (c *Client) SetDefaultCellCount(n int) (string, error) {
	ret, err := c.Put("/config/default-cell-count", strconv.Itoa(n))
	return unquote(ret), err
}

func (c *Client) SetDefaultChemistry(chem string) (string, error) {
	payload, err := json.Marshal(chem)
	if err != nil {
		return "", err
	}
	ret, err := c.Put("/config/default-chemistry", string(payload))
	return unquote(ret), err
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	var conf config.RawFileConfig
	if err := json.Unmarshal([]byte(ret), &conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}

	return &conf, nil
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}
	return unquote(ret), nil
}

// unquote strips the JSON string encoding the dashboard uses for plain
// messages. Anything that is not a JSON string is returned as is.
func unquote(s string) string {
	var msg string
	if err := json.Unmarshal([]byte(s), &msg); err != nil {
		return s
	}
	return msg
}
