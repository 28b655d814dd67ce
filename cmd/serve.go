package cmd

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/clockwise-hq/clockwise/cmd/flags"
	"github.com/clockwise-hq/clockwise/pkg/apis/cache"
	redcache "github.com/clockwise-hq/clockwise/pkg/cache/redis"
	"github.com/clockwise-hq/clockwise/pkg/db/models"
	"github.com/clockwise-hq/clockwise/pkg/server"
	"github.com/clockwise-hq/clockwise/pkg/server/metrics"
)

type ServerFlags struct {
	DBFlags     *flags.PostgresDatabaseFlags
	ConfigFlags *flags.ConfigFlags
	ListenAddr  string
	MetricsAddr string
	RedisURL    string
}

func NewServerFlags() *ServerFlags {
	return &ServerFlags{
		DBFlags:     flags.NewPostgresDatabaseFlags(),
		ConfigFlags: flags.NewConfigFlags(),
		ListenAddr:  ":8080",
		MetricsAddr: ":2112",
	}
}

func (f *ServerFlags) BindFlags(fs *pflag.FlagSet) {
	f.DBFlags.BindFlags(fs)
	f.ConfigFlags.BindFlags(fs)
	fs.StringVar(&f.ListenAddr, "listen", f.ListenAddr, "The address to serve the attendance API on (default :8080)")
	fs.StringVar(&f.MetricsAddr, "listen-metrics", f.MetricsAddr, "The address to serve prometheus metrics on (default :2112)")
	fs.StringVar(&f.RedisURL, "redis-url", f.RedisURL, "Redis URL for the consolidated shift report cache (optional)")
}

func init() {
	f := NewServerFlags()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the attendance API",
		Run: func(cmd *cobra.Command, args []string) {
			dbc, err := f.DBFlags.GetDBClient()
			if err != nil {
				log.WithError(err).Fatal("could not connect to db")
			}

			// Make sure the db is initialized, otherwise let the user know:
			events := []models.AttendanceEvent{}
			res := dbc.DB.Limit(1).Find(&events)
			if res.Error != nil {
				log.WithError(res.Error).Fatal("error querying attendance events, database may need to be initialized with the migrate command")
			}

			config := f.ConfigFlags.LoadConfig()
			listenAddr := f.ListenAddr
			if config.Server.ListenAddr != "" {
				listenAddr = config.Server.ListenAddr
			}
			metricsAddr := f.MetricsAddr
			if config.Server.MetricsAddr != "" {
				metricsAddr = config.Server.MetricsAddr
			}
			redisURL := f.RedisURL
			if redisURL == "" {
				redisURL = config.Server.RedisURL
			}

			var shiftCache cache.Cache
			if redisURL != "" {
				shiftCache, err = redcache.NewRedisCache(redisURL)
				if err != nil {
					log.WithError(err).Fatal("could not connect to redis")
				}
			}

			// Do an immediate metrics update
			if err := metrics.RefreshMetricsDB(dbc); err != nil {
				log.WithError(err).Error("error refreshing metrics")
			}

			// Refresh our metrics every 5 minutes:
			ticker := time.NewTicker(5 * time.Minute)
			quit := make(chan struct{})
			go func() {
				for {
					select {
					case <-ticker.C:
						if err := metrics.RefreshMetricsDB(dbc); err != nil {
							log.WithError(err).Error("error refreshing metrics")
						}
					case <-quit:
						ticker.Stop()
						return
					}
				}
			}()

			// Serve our metrics endpoint for prometheus to scrape
			go func() {
				http.Handle("/metrics", promhttp.Handler())
				err := http.ListenAndServe(metricsAddr, nil) //nolint:gosec
				if err != nil {
					panic(err)
				}
			}()

			srv := server.New(listenAddr, dbc, shiftCache, config.Limits)
			if err := srv.Serve(); err != nil {
				log.WithError(err).Fatal("server terminated")
			}
		},
	}

	f.BindFlags(cmd.Flags())
	rootCmd.AddCommand(cmd)
}
