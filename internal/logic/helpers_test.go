package logic

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/travisim/Farmify-sub001/internal/database"
	"github.com/travisim/Farmify-sub001/internal/model"
	"github.com/travisim/Farmify-sub001/internal/xrpl"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// Serialize writes; in-memory sqlite has no row locking.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

// stubGateway is an in-memory ledger gateway. Payments to addresses listed
// in failDestinations come back rejected; everything else succeeds.
type stubGateway struct {
	mu sync.Mutex

	submitEngineResult string // engine result for Submit, default tesSUCCESS
	failDestinations   map[string]string
	txResults          map[string]*xrpl.Result

	submitCount  int
	paymentCount map[string]int
	seq          int
}

func newStubGateway() *stubGateway {
	return &stubGateway{
		failDestinations: make(map[string]string),
		txResults:        make(map[string]*xrpl.Result),
		paymentCount:     make(map[string]int),
	}
}

func (g *stubGateway) Submit(ctx context.Context, signedBlob []byte) (*xrpl.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.submitCount++
	engineResult := g.submitEngineResult
	if engineResult == "" {
		engineResult = "tesSUCCESS"
	}
	return &xrpl.Result{EngineResult: engineResult, Hash: xrpl.TxHash(signedBlob)}, nil
}

func (g *stubGateway) SubmitFromWallet(ctx context.Context, wallet string, tx *xrpl.TxSpec) (*xrpl.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if tx.Type == "Payment" {
		g.paymentCount[tx.Destination]++
		if reason, ok := g.failDestinations[tx.Destination]; ok {
			return &xrpl.Result{EngineResult: reason}, nil
		}
	}

	g.seq++
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", tx.Type, g.seq)))
	return &xrpl.Result{
		EngineResult: "tesSUCCESS",
		Hash:         strings.ToUpper(hex.EncodeToString(sum[:])),
	}, nil
}

func (g *stubGateway) Tx(ctx context.Context, hash string) (*xrpl.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if result, ok := g.txResults[hash]; ok {
		return result, nil
	}
	return &xrpl.Result{Hash: hash}, nil
}

func (g *stubGateway) payments(destination string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paymentCount[destination]
}

// stubDocStore content-addresses documents without any network.
type stubDocStore struct{}

func (s *stubDocStore) Store(ctx context.Context, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	return "bafy" + hex.EncodeToString(sum[:8]), nil
}

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return d
}

func seedProject(t *testing.T, db *gorm.DB, tokenID, farmer, goal string) *model.Project {
	t.Helper()
	project := &model.Project{
		TokenID:       tokenID,
		FarmerAddress: farmer,
		Title:         "Paddy field expansion",
		FundingGoal:   dec(t, goal),
		Status:        model.ProjectStatusActive,
	}
	require.NoError(t, db.Create(project).Error)
	return project
}
