package orderstatus

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huymai96/package-confirmation-app/pkg/models"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestBuild_BasicTable(t *testing.T) {
	data := []byte("Order,Vendor,Due Date,Status\n" +
		"7654321,Embroidery,2024-06-01,Pipelined\n" +
		"8001234B,Screen Print,2024-06-03,On Hold - payment\n")

	table, err := NewBuilder(testLogger()).Build(context.Background(), "customink_orders.csv", data)
	require.NoError(t, err)
	require.Len(t, table, 2)

	rec := table["7654321"]
	assert.Equal(t, "7654321", rec.PurchaseOrderDigits)
	assert.Equal(t, "Embroidery", rec.Department)
	assert.Equal(t, "Sat, Jun 01", rec.DueDate)
	assert.Equal(t, "Pipelined", rec.Status)
	assert.Equal(t, models.PipelineFlagPipelined, rec.PipelineFlag)

	rec = table["8001234"]
	assert.Equal(t, models.PipelineFlagOnHold, rec.PipelineFlag)
}

func TestBuild_ShortDigitKeysDropped(t *testing.T) {
	data := []byte("Order,Vendor,Due,Status\n" +
		"12345,Embroidery,2024-06-01,Open\n" +
		"123456,Embroidery,2024-06-01,Open\n" +
		"1234567,Embroidery,2024-06-01,Open\n")

	table, err := NewBuilder(testLogger()).Build(context.Background(), "orders.csv", data)
	require.NoError(t, err)

	assert.Len(t, table, 1)
	assert.Contains(t, table, "1234567")
	assert.NotContains(t, table, "12345")
	assert.NotContains(t, table, "123456")
}

func TestBuild_LastRowWins(t *testing.T) {
	data := []byte("Order,Vendor,Due,Status\n" +
		"7654321,Embroidery,2024-06-01,Open\n" +
		"7654321B,Screen Print,2024-06-05,Pipelined\n")

	table, err := NewBuilder(testLogger()).Build(context.Background(), "orders.csv", data)
	require.NoError(t, err)
	require.Len(t, table, 1)

	rec := table["7654321"]
	assert.Equal(t, "Screen Print", rec.Department)
}

func TestBuild_NoOrderColumnYieldsEmptyTable(t *testing.T) {
	data := []byte("Vendor,Due,Status\nEmbroidery,2024-06-01,Open\n")

	table, err := NewBuilder(testLogger()).Build(context.Background(), "orders.csv", data)
	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestPipelineFlag(t *testing.T) {
	cases := []struct {
		status string
		want   string
	}{
		{"On Hold - awaiting art", models.PipelineFlagOnHold},
		{"ON HOLD", models.PipelineFlagOnHold},
		{"Pipelined", models.PipelineFlagPipelined},
		{"In pipeline", models.PipelineFlagPipelined},
		{"Pending approval", models.PipelineFlagPipelined},
		{"Shipped", models.PipelineFlagNone},
		{"", models.PipelineFlagNone},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PipelineFlag(tc.status), "status %q", tc.status)
	}
}

func TestFormatDueDate(t *testing.T) {
	assert.Equal(t, "Sat, Jun 01", FormatDueDate("2024-06-01"))
	assert.Equal(t, "Sat, Jun 01", FormatDueDate("6/1/2024"))
	assert.Equal(t, "Sat, Jun 01", FormatDueDate("Jun 1, 2024"))
	assert.Equal(t, "next week sometime", FormatDueDate("next week sometime"))
	assert.Equal(t, "", FormatDueDate("  "))
}
