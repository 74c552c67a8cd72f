package domain

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupCRMTestDB creates a PostgreSQL testcontainer with the CRM schema
func setupCRMTestDB(t *testing.T) *gorm.DB {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate postgres container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := gorm.Open(pgdriver.Open(connStr), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func TestCustomer_BeforeCreate(t *testing.T) {
	db := setupCRMTestDB(t)

	customer := &Customer{TenantID: uuid.New(), Name: "Acme Corp"}
	assert.Equal(t, uuid.Nil, customer.ID)

	require.NoError(t, db.Create(customer).Error)

	assert.NotEqual(t, uuid.Nil, customer.ID)
	assert.Equal(t, CustomerTypeIndividual, customer.Type)
	assert.False(t, customer.IsDeleted)
}

func TestCustomer_PreloadDependents(t *testing.T) {
	db := setupCRMTestDB(t)
	tenant := uuid.New()

	customer := &Customer{TenantID: tenant, Name: "Acme Corp", Type: CustomerTypeBusiness}
	require.NoError(t, db.Create(customer).Error)

	require.NoError(t, db.Create(&Contact{TenantID: tenant, CustomerID: customer.ID, FullName: "Wile E."}).Error)
	require.NoError(t, db.Create(&Ticket{TenantID: tenant, CustomerID: customer.ID, Subject: "Rocket skates"}).Error)
	require.NoError(t, db.Create(&Ticket{TenantID: tenant, CustomerID: customer.ID, Subject: "Anvil"}).Error)

	var loaded Customer
	err := db.Preload("Contacts").Preload("Tickets").First(&loaded, "id = ?", customer.ID).Error
	require.NoError(t, err)

	assert.Len(t, loaded.Contacts, 1)
	assert.Len(t, loaded.Tickets, 2)
	assert.Empty(t, loaded.Opportunities)
}

func TestLead_ActivitiesAndAudit(t *testing.T) {
	db := setupCRMTestDB(t)
	tenant := uuid.New()

	lead := &Lead{TenantID: tenant, FirstName: "Ada", LastName: "Lovelace"}
	require.NoError(t, db.Create(lead).Error)
	require.NoError(t, db.Create(&Activity{TenantID: tenant, LeadID: lead.ID, Kind: "call"}).Error)

	audit := &AuditLog{
		TenantID:   tenant,
		Action:     AuditActionMerge,
		EntityType: EntityTypeLead,
		EntityID:   lead.ID,
		Message:    "Merged into Lead " + uuid.NewString(),
	}
	require.NoError(t, db.Create(audit).Error)
	assert.NotEqual(t, uuid.Nil, audit.ID)

	var loaded Lead
	require.NoError(t, db.Preload("Activities").First(&loaded, "id = ?", lead.ID).Error)
	assert.Len(t, loaded.Activities, 1)

	var count int64
	require.NoError(t, db.Model(&AuditLog{}).Where("entity_id = ?", lead.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
