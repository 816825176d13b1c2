// Command seed fills a development database with generated contacts,
// companies, leads, ideas, projects, tasks and events.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jordanlanch/freelancecrm/config"
	"github.com/jordanlanch/freelancecrm/pkg/activity"
	"github.com/jordanlanch/freelancecrm/pkg/companies"
	"github.com/jordanlanch/freelancecrm/pkg/contacts"
	"github.com/jordanlanch/freelancecrm/pkg/database"
	"github.com/jordanlanch/freelancecrm/pkg/events"
	"github.com/jordanlanch/freelancecrm/pkg/ideas"
	"github.com/jordanlanch/freelancecrm/pkg/leads"
	"github.com/jordanlanch/freelancecrm/pkg/logger"
	"github.com/jordanlanch/freelancecrm/pkg/projects"
	"github.com/jordanlanch/freelancecrm/pkg/tasks"
	"github.com/jordanlanch/freelancecrm/pkg/testdata"
)

type options struct {
	companies int
	contacts  int
	ideas     int
	projects  int
	seed      int64
}

func main() {
	cfg := config.Load()
	opts := options{}
	flag.IntVar(&opts.companies, "companies", 10, "companies to create")
	flag.IntVar(&opts.contacts, "contacts", 40, "contacts to create, spread over the companies")
	flag.IntVar(&opts.ideas, "ideas", 8, "ideas to create")
	flag.IntVar(&opts.projects, "projects", 6, "projects to create, each with tasks and an event")
	flag.Int64Var(&opts.seed, "seed", 0, "random seed (0 picks one)")
	dbPath := flag.String("db", cfg.DatabasePath, "SQLite database path")
	flag.Parse()

	log := logger.New(cfg.LogLevel)
	if err := seed(context.Background(), *dbPath, opts, log); err != nil {
		log.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func seed(ctx context.Context, path string, opts options, log logger.Logger) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := database.Open(ctx, path, database.DefaultPoolConfig(), log)
	if err != nil {
		return err
	}
	defer db.Close()

	act := activity.NewService(db)
	companySvc := companies.NewService(db, act)
	contactSvc := contacts.NewService(db, act)
	leadSvc := leads.NewService(db, act)
	ideaSvc := ideas.NewService(db, act)
	projectSvc := projects.NewService(db, act)
	taskSvc := tasks.NewService(db, act)
	eventSvc := events.NewService(db, act, taskSvc)
	gen := testdata.NewGenerator(opts.seed)

	companyIDs := make([]int64, 0, opts.companies)
	for i := 0; i < opts.companies; i++ {
		c, err := companySvc.Create(ctx, gen.Company())
		if err != nil {
			return fmt.Errorf("company %d: %w", i, err)
		}
		companyIDs = append(companyIDs, c.ID)
	}

	type person struct{ id, companyID *int64 }
	people := make([]person, 0, opts.contacts)
	for i := 0; i < opts.contacts; i++ {
		var companyID *int64
		if len(companyIDs) > 0 && i%4 != 3 {
			companyID = &companyIDs[i%len(companyIDs)]
		}
		c, err := contactSvc.Create(ctx, gen.Contact(companyID))
		if err != nil {
			return fmt.Errorf("contact %d: %w", i, err)
		}
		people = append(people, person{id: &c.ID, companyID: companyID})

		if i%3 == 0 {
			if _, err := leadSvc.Create(ctx, gen.Lead(&c.ID, companyID)); err != nil {
				return fmt.Errorf("lead for contact %d: %w", c.ID, err)
			}
		}
	}

	for i := 0; i < opts.ideas; i++ {
		if _, err := ideaSvc.Create(ctx, gen.Idea()); err != nil {
			return fmt.Errorf("idea %d: %w", i, err)
		}
	}

	for i := 0; i < opts.projects; i++ {
		var p person
		if len(people) > 0 {
			p = people[i%len(people)]
		}
		project, err := projectSvc.Create(ctx, gen.Project(p.id, p.companyID))
		if err != nil {
			return fmt.Errorf("project %d: %w", i, err)
		}
		for j := 0; j < 4; j++ {
			if _, err := taskSvc.Create(ctx, project.ID, gen.Task()); err != nil {
				return fmt.Errorf("task for project %d: %w", project.ID, err)
			}
		}
		if _, err := eventSvc.Create(ctx, gen.Event(&project.ID, p.id)); err != nil {
			return fmt.Errorf("event for project %d: %w", project.ID, err)
		}
	}

	log.Info("database seeded",
		"path", path,
		"companies", opts.companies,
		"contacts", opts.contacts,
		"ideas", opts.ideas,
		"projects", opts.projects,
	)
	return nil
}
