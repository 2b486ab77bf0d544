package extract

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

func sanmarFile(name string) models.ManifestFile {
	return models.ManifestFile{Filename: name, SourceType: models.SourceSanmar}
}

func TestExtract_Sanmar(t *testing.T) {
	data := []byte("\"Tracking Number\",\"Customer PO\",\"Ship To\",\"Ship Date\"\n" +
		"\"1Z999AA1-0123456784\",\"7654321B\",\"Acme Shirts\",\"2024-06-01\"\n" +
		"\"\",\"111\",\"Blank row\",\"\"\n" +
		"\"nan\",\"222\",\"Missing\",\"\"\n" +
		"\"1Z9\",\"333\",\"Too short\",\"\"\n")

	entries, err := New(testLogger()).Extract(context.Background(), sanmarFile("sanmar_0601.csv"), data)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "1Z999AA10123456784", e.TrackingKey)
	assert.Equal(t, models.SourceSanmar, e.SourceType)
	assert.Equal(t, "sanmar_0601.csv", e.SourceFile)
	assert.Equal(t, "7654321B", e.PurchaseOrder)
	assert.Equal(t, "Acme Shirts", e.CustomerOrShipper)
	assert.Equal(t, "2024-06-01", e.ShipDate)
}

func TestExtract_CombinedCarriesBaseSourceType(t *testing.T) {
	data := []byte("\"Tracking\",\"PO\",\"Customer\"\n\"1Z55544433F99912\",\"8000001\",\"Acme\"\n")
	file := models.ManifestFile{Filename: "sanmar_combined.csv", SourceType: models.SourceSanmarCombined}

	entries, err := New(testLogger()).Extract(context.Background(), file, data)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.SourceSanmar, entries[0].SourceType)
}

func TestExtract_NoTrackingColumnSkipsManifest(t *testing.T) {
	data := []byte("\"PO\",\"Customer\"\n\"7654321\",\"Acme\"\n")

	entries, err := New(testLogger()).Extract(context.Background(), sanmarFile("sanmar.csv"), data)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtract_CorruptedSanmarReturnsError(t *testing.T) {
	data := []byte("<html>502 Bad Gateway</html>")

	_, err := New(testLogger()).Extract(context.Background(), sanmarFile("sanmar.csv"), data)
	assert.Error(t, err)
}

func TestExtract_InboundReferencePORecovery(t *testing.T) {
	data := []byte("Tracking,Reference 1,Weight,Service,Shipper\n" +
		"1Z12345E0205271688,8001234B|extra text,5,Ground,UPS Supply Chain\n" +
		"1Z12345E0305271640,no order here,3,Ground,Generic Freight\n")
	file := models.ManifestFile{Filename: "inbound_0601.csv", SourceType: models.SourceInbound}

	entries, err := New(testLogger()).Extract(context.Background(), file, data)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	matched := entries[0]
	assert.Equal(t, "8001234", matched.PurchaseOrder)
	assert.Equal(t, []string{"8001234B", "extra text"}, matched.ReferenceTokens)
	assert.Equal(t, "UPS Supply Chain", matched.ShipperName)

	unmatched := entries[1]
	assert.Equal(t, "no order here", unmatched.PurchaseOrder)
	assert.Equal(t, []string{"no order here"}, unmatched.ReferenceTokens)
}

func TestExtract_InboundPositionalFallback(t *testing.T) {
	// No header row at all; tracking values live in arbitrary columns.
	data := []byte("1Z999AA10123456784,8001234B|dock 3,x,y,UPS Supply Chain\n" +
		"short,ref,x,y,Someone\n" +
		"961129812345678912,other ref,x,y,FedEx Freight\n")
	file := models.ManifestFile{Filename: "inbound_dock.csv", SourceType: models.SourceInbound}

	entries, err := New(testLogger()).Extract(context.Background(), file, data)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "1Z999AA10123456784", entries[0].TrackingKey)
	assert.Equal(t, "8001234", entries[0].PurchaseOrder)
	assert.Equal(t, "UPS Supply Chain", entries[0].CustomerOrShipper)

	assert.Equal(t, "961129812345678912", entries[1].TrackingKey)
	assert.Equal(t, "other ref", entries[1].PurchaseOrder)
}

func TestExtract_SSHeaderOffset(t *testing.T) {
	data := []byte("S&S Activewear Shipment Report,,,\n" +
		"Invoice,Customer,PO Number,Tracking #\n" +
		"INV-1,Acme Shirts,8000001,1Z55544433F99912\n")
	file := models.ManifestFile{Filename: "s&s_0601.csv", SourceType: models.SourceSS}

	entries, err := New(testLogger()).Extract(context.Background(), file, data)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, "1Z55544433F99912", entries[0].TrackingKey)
	assert.Equal(t, "8000001", entries[0].PurchaseOrder)
	assert.Equal(t, "Acme Shirts", entries[0].CustomerOrShipper)
}

func TestTrackingKey(t *testing.T) {
	key, ok := trackingKey(" 1z 999-aa1.0123456784 ")
	require.True(t, ok)
	assert.Equal(t, "1Z999AA10123456784", key)

	_, ok = trackingKey("")
	assert.False(t, ok)
	_, ok = trackingKey("NaN")
	assert.False(t, ok)
	_, ok = trackingKey("12345")
	assert.False(t, ok)
	_, ok = trackingKey("------")
	assert.False(t, ok)
}
