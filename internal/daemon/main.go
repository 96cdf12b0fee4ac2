// Package daemon wires the application together and runs it.
package daemon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/hindterminals/workpermit/internal/config"
	"github.com/hindterminals/workpermit/internal/db/dsn"
	"github.com/hindterminals/workpermit/internal/db/models"
	"github.com/hindterminals/workpermit/internal/identity"
	"github.com/hindterminals/workpermit/internal/notify"
	"github.com/hindterminals/workpermit/internal/permit/engine"
	"github.com/hindterminals/workpermit/internal/permit/number"
	"github.com/hindterminals/workpermit/internal/permit/sweep"
	"github.com/hindterminals/workpermit/internal/web"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
	sweeper    *sweep.Sweeper

	sweepMu sync.Mutex
}

// Start runs the expiry sweep loop and the web service. It blocks until
// the web service stops.
func (d *Daemon) Start() error {
	if d.cfg.Sweep.Enabled {
		go d.sweepLoop()
	}

	go d.webService.WaitShutdown()

	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// sweepLoop runs the expiry sweep on its configured cadence. A tick
// that fires while the previous run is still going is skipped.
func (d *Daemon) sweepLoop() {
	interval := time.Duration(d.cfg.Sweep.IntervalMinutes) * time.Minute

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("expiry sweep scheduled")

	for range ticker.C {
		if !d.sweepMu.TryLock() {
			log.Warn().Msg("previous expiry sweep still running, skipping tick")
			continue
		}

		if _, err := d.sweeper.Run(context.Background()); err != nil {
			log.Error().Err(err).Msg("expiry sweep failed")
		}

		d.sweepMu.Unlock()
	}
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	dbDriver := gormmysql.Open(dsn.Create(cfg))

	db, err := gorm.Open(dbDriver, &gorm.Config{TranslateError: true})
	if err != nil {
		panic("failed to connect database")
	}

	if err = db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Permit{},
		&models.HeightWorkDetail{},
		&models.HotWorkDetail{},
		&models.ElectricWorkDetail{},
		&models.GeneralWorkDetail{},
		&models.Ownership{},
		&models.CloseStatus{},
		&models.WorkingFile{},
		&models.AdminDocument{},
		&models.CloseDocument{},
	); err != nil {
		panic("failed to migrate database")
	}

	seed(cfg, db)

	dir := identity.NewDirectory(db)
	ids := number.NewGenerator(db, nil)

	var notifier notify.Dispatcher = notify.Noop{}
	if cfg.Mail.Enabled {
		notifier = notify.NewSMTP(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From)
	}

	eng := engine.New(db, ids, dir, notifier, engine.Options{
		FallbackRecipients: cfg.Mail.FallbackRecipients,
	})

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, db, eng),
		sweeper:    sweep.New(db, nil),
	}
}
