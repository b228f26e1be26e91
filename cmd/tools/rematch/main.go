package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/rowanhq/grantmatch/internal/db"
	"github.com/rowanhq/grantmatch/internal/match"
)

// rematch recomputes grant matches directly against the database, bypassing
// the HTTP API. Pass -grant to recompute one grant across all companies, or
// -company to recompute one company across all active grants.
func main() {
	grantFlag := flag.String("grant", "", "public grant UUID to recompute across all companies")
	companyFlag := flag.String("company", "", "company UUID to recompute across all active grants")
	timeoutSec := flag.Int("timeout-sec", 300, "overall timeout")
	flag.Parse()

	if (*grantFlag == "") == (*companyFlag == "") {
		log.Fatal("provide exactly one of -grant or -company")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(*timeoutSec)*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	svc := match.NewService(db.NewStore(pool), match.DefaultVocabulary())

	if *grantFlag != "" {
		grantID, err := uuid.Parse(*grantFlag)
		if err != nil {
			log.Fatalf("invalid -grant: %v", err)
		}
		if err := svc.MarkMatchesStale(ctx, grantID); err != nil {
			log.Fatalf("mark stale failed: %v", err)
		}
		if err := svc.ComputeMatchesForAllCompanies(ctx, grantID); err != nil {
			log.Fatalf("recompute failed: %v", err)
		}
		log.Printf("Recomputed matches for grant %s", grantID)
		return
	}

	companyID, err := uuid.Parse(*companyFlag)
	if err != nil {
		log.Fatalf("invalid -company: %v", err)
	}
	if err := svc.ComputeMatchesForCompany(ctx, companyID); err != nil {
		log.Fatalf("recompute failed: %v", err)
	}
	log.Printf("Recomputed matches for company %s", companyID)
}
