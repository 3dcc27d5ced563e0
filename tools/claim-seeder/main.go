// claim-seeder generates realistic intake traffic against a running
// claims gateway: it submits fake claims, drives a share of them
// through the workflow, and records processing errors on some.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/NASWA-OpenUI/Playground/internal/client"
	"github.com/NASWA-OpenUI/Playground/internal/models"
)

var sourceSystems = []string{"claimant-portal", "employer-services", "state-intake", "legacy-mainframe"}

func main() {
	gatewayURL := flag.String("gateway", "http://localhost:8080", "claims gateway base URL")
	count := flag.Int("count", 50, "number of claims to submit")
	interval := flag.Duration("interval", 100*time.Millisecond, "delay between submissions")
	advanceRatio := flag.Float64("advance", 0.6, "fraction of claims to advance through the workflow")
	errorRatio := flag.Float64("errors", 0.1, "fraction of claims to record errors against")
	flag.Parse()

	gofakeit.Seed(time.Now().UnixNano())
	gw := client.NewGatewayClient(*gatewayURL)

	log.Printf("Starting claim seeder:")
	log.Printf("  Gateway: %s", *gatewayURL)
	log.Printf("  Claim count: %d", *count)
	log.Printf("  Interval: %v", *interval)

	created, failed := 0, 0
	for i := 0; i < *count; i++ {
		claim := fakeClaim()

		submitted, err := gw.CreateClaim(claim)
		if err != nil {
			log.Printf("Failed to submit claim %s: %v", claim.ClaimReferenceID, err)
			failed++
			continue
		}
		created++

		if rand.Float64() < *advanceRatio {
			steps := rand.Intn(3) + 1
			for s := 0; s < steps; s++ {
				if _, err := gw.AdvanceClaim(submitted.ClaimReferenceID, "claim-seeder"); err != nil {
					break
				}
			}
		}

		if rand.Float64() < *errorRatio {
			msg := gofakeit.HackerPhrase()
			if _, err := gw.RecordClaimError(submitted.ClaimReferenceID, msg, "claim-seeder"); err != nil {
				log.Printf("Failed to record error on %s: %v", submitted.ClaimReferenceID, err)
			}
		}

		time.Sleep(*interval)
	}

	log.Printf("Seeding complete: %d created, %d failed", created, failed)
}

func fakeClaim() *models.Claim {
	birthDate := gofakeit.DateRange(
		time.Now().AddDate(-65, 0, 0), time.Now().AddDate(-18, 0, 0))
	employmentStart := gofakeit.DateRange(
		time.Now().AddDate(-10, 0, 0), time.Now().AddDate(-1, 0, 0))
	employmentEnd := gofakeit.DateRange(employmentStart, time.Now())

	weekly := gofakeit.Float64Range(200, 800)

	return &models.Claim{
		ClaimReferenceID: fmt.Sprintf("CLM-%s", gofakeit.UUID()[:13]),
		SourceSystem:     sourceSystems[rand.Intn(len(sourceSystems))],

		ClaimantID:   gofakeit.UUID(),
		FirstName:    gofakeit.FirstName(),
		LastName:     gofakeit.LastName(),
		SSN:          gofakeit.SSN(),
		BirthDate:    &birthDate,
		EmailAddress: gofakeit.Email(),
		PhoneNumber:  gofakeit.Phone(),

		StreetAddress: gofakeit.Street(),
		City:          gofakeit.City(),
		State:         gofakeit.StateAbr(),
		PostalCode:    gofakeit.Zip(),

		EmployerName:          gofakeit.Company(),
		EmployerID:            fmt.Sprintf("EMP-%d", gofakeit.Number(10000, 99999)),
		EmploymentStartDate:   &employmentStart,
		EmploymentEndDate:     &employmentEnd,
		SeparationReasonCode:  gofakeit.RandomString([]string{"LAYOFF", "QUIT", "DISCHARGE", "REDUCTION"}),
		SeparationExplanation: gofakeit.Sentence(8),

		BasePeriodQ4:         gofakeit.Float64Range(5000, 20000),
		TotalAnnualEarnings:  gofakeit.Float64Range(20000, 90000),
		WeeklyBenefitAmount:  weekly,
		MaximumBenefitAmount: weekly * 26,

		CreatedBy: "claim-seeder",
	}
}
