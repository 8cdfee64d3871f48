package dashboard

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cli/browser"
	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/bmsdash/pkg/cell"
	"github.com/charlie0129/bmsdash/pkg/config"
	"github.com/charlie0129/bmsdash/pkg/events"
	"github.com/charlie0129/bmsdash/pkg/session"
)

// Server serves the dashboard pages, the JSON API used by the CLI, the event
// stream and the metrics endpoint for a single in-memory session.
type Server struct {
	conf    config.Config
	sess    *session.Session
	hub     *events.EventHub
	gen     *cell.Generator
	metrics *metrics
	reg     *prometheus.Registry
	now     func() time.Time
	router  *gin.Engine
}

var _ events.Publisher = &Server{}

// NewServer creates a server with an empty session. gen may be nil, in which
// case it is seeded from conf.
func NewServer(conf config.Config, hub *events.EventHub, gen *cell.Generator) (*Server, error) {
	if conf == nil {
		return nil, pkgerrors.New("config is nil")
	}
	if hub == nil {
		hub = events.NewEventHub()
	}
	if gen == nil {
		gen = cell.NewGenerator(conf.Seed())
	}

	reg := prometheus.NewRegistry()
	m, err := newMetrics(reg)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to register metrics")
	}

	s := &Server{
		conf:    conf,
		hub:     hub,
		gen:     gen,
		metrics: m,
		reg:     reg,
		now:     time.Now,
	}
	s.sess = session.New(gen, s)
	s.router = s.setupRoutes()

	return s, nil
}

// Publish counts the event and hands it to the hub.
func (s *Server) Publish(name string, payload any) {
	s.metrics.events.WithLabelValues(name).Inc()
	s.hub.Publish(name, payload)
}

// Session returns the session served by s.
func (s *Server) Session() *session.Session {
	return s.sess
}

// Handler returns the gin engine.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(ginLogger(logrus.StandardLogger()))

	router.SetHTMLTemplate(pageTemplate)

	// Pages and form actions.
	router.GET("/", s.getIndex)
	router.POST("/ui/cells", s.postUICells)
	router.POST("/ui/tasks", s.postUITask)
	router.POST("/ui/tasks/:key/start", s.postUITaskStart)
	router.POST("/ui/tasks/:key/delete", s.postUITaskDelete)

	router.GET("/charts/voltage", s.getVoltageChart)
	router.GET("/charts/temperature/:key", s.getTemperatureChart)

	router.GET("/export/cells.csv", s.getCellsCSV)
	router.GET("/export/tasks.csv", s.getTasksCSV)

	api := router.Group("/api")
	api.GET("/chemistries", s.getChemistries)
	api.GET("/cells", s.getCells)
	api.PUT("/cells", s.putCells)
	api.GET("/cells/:key", s.getCell)
	api.GET("/summary", s.getSummary)
	api.GET("/tasks", s.getTasks)
	api.POST("/tasks", s.postTask)
	api.DELETE("/tasks/:key", s.deleteTask)
	api.POST("/tasks/:key/start", s.startTask)
	api.GET("/task-types", s.getTaskTypes)

	router.GET("/config", s.getConfig)
	router.PUT("/config/default-cell-count", s.setDefaultCellCount)
	router.PUT("/config/default-chemistry", s.setDefaultChemistry)
	router.GET("/version", getVersion)
	router.GET("/events", s.getEvents)

	metricsHandler := promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{})
	router.GET("/metrics", func(c *gin.Context) {
		s.metrics.observe(s.sess)
		metricsHandler.ServeHTTP(c.Writer, c.Request)
	})

	return router
}

// Run loads the configuration, serves the dashboard on listen (or the
// configured address when empty) and blocks until SIGINT or SIGTERM.
func Run(configPath string, listen string, openBrowser bool) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		logrus.Warnf("failed to load .env: %v", err)
	}

	conf, err := config.NewFile(configPath)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to parse config during startup")
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	hub := events.NewEventHub()
	s, err := NewServer(conf, hub, nil)
	if err != nil {
		return err
	}

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			err := conf.Load()
			if err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			logrus.Infof("config reloaded")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if m := conf.MQTT(); m.Enabled() {
		fwd, err := events.NewMQTTForwarder(events.MQTTOptions{
			Broker:      m.Broker,
			ClientID:    m.ClientID,
			TopicPrefix: m.TopicPrefix,
		})
		if err != nil {
			logrus.Errorf("mqtt forwarding disabled: %v", err)
		} else {
			go fwd.Run(ctx, hub)
			defer fwd.Close()
		}
	}

	if listen == "" {
		listen = conf.Listen()
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	l, err := net.Listen("tcp", listen)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to listen on %s", listen)
	}

	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	if openBrowser {
		url := "http://" + browsableAddr(l.Addr().String()) + "/"
		if err := browser.OpenURL(url); err != nil {
			logrus.Warnf("failed to open %s in a browser: %v", url, err)
		}
	}

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	// Wait for a SIGINT or SIGTERM:
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	// Request contexts derive from ctx, so this also ends open event streams.
	cancel()

	logrus.Info("shutting down http server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	shutdownCancel()

	logrus.Info("exiting")
	return nil
}

// browsableAddr replaces a wildcard listen host with loopback.
func browsableAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
