package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/rowanhq/grantmatch/internal/db"
)

func main() {
	companyFlag := flag.String("company", "", "company UUID to report on")
	flag.Parse()

	companyID, err := uuid.Parse(*companyFlag)
	if err != nil {
		log.Fatalf("invalid -company: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	store := db.NewStore(pool)
	matches, err := store.ListMatchesForCompany(ctx, companyID)
	if err != nil {
		log.Fatal(err)
	}

	grantTitles := map[uuid.UUID]string{}
	rows, err := pool.Query(ctx, "SELECT id, title FROM public_grants")
	if err != nil {
		log.Fatal(err)
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		var title string
		if err := rows.Scan(&id, &title); err != nil {
			log.Printf("Scan error: %v", err)
			continue
		}
		grantTitles[id] = title
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Grant", "Overall", "Elig", "Ready", "Fit", "Risks", "Stale", "Computed At"})

	for _, m := range matches {
		title := grantTitles[m.PublicGrantID]
		if title == "" {
			title = m.PublicGrantID.String()
		}

		risks := "-"
		if len(m.RiskFlags) > 0 {
			risks = strings.Join(m.RiskFlags, "; ")
		}

		t.AppendRow(table.Row{title, m.OverallScore, m.EligibilityScore, m.ReadinessScore, m.FitScore, risks, m.Stale, m.ComputedAt.Format(time.RFC3339)})
	}
	t.Render()
}
