package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/mgauthier/centime/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20250315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20250301120000[0:GMT]
<DTEND>20250314120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20250310120000[0:GMT]
<TRNAMT>-25.50
<FITID>MAR10
<NAME>STARBUCKS
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20250312120000[0:GMT]
<TRNAMT>100.00
<FITID>MAR12
<NAME>REFUND
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20250314120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestImportOFX(t *testing.T) {
	pipeline, store := createTestPipeline(t)
	ctx := context.Background()

	report, err := pipeline.ImportOFX(ctx, strings.NewReader(testBankOFX))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, 0, report.Skipped)
	assert.Empty(t, report.Errors)

	txns, err := store.GetTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txns, 2)

	// Newest first. Amounts are sign-flipped: OFX debits become positive
	// ledger spending, credits become negative refunds.
	assert.Equal(t, "REFUND", txns[0].Description)
	assert.InDelta(t, -100.00, txns[0].Amount, 1e-9)
	assert.Nil(t, txns[0].CategoryID)

	assert.Equal(t, "STARBUCKS", txns[1].Description)
	assert.InDelta(t, 25.50, txns[1].Amount, 1e-9)
	assert.Equal(t, "2025-03-10", txns[1].Date.Format("2006-01-02"))
}

func TestImportOFX_NotAnOFXFile(t *testing.T) {
	pipeline, _ := createTestPipeline(t)

	report, err := pipeline.ImportOFX(context.Background(), strings.NewReader("date,description,amount\n2025-03-01,Nope,1.00\n"))
	require.NoError(t, err)

	assert.Equal(t, 0, report.Inserted)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "decoding error")
}

func TestImportOFX_LeadingWhitespaceTolerated(t *testing.T) {
	pipeline, _ := createTestPipeline(t)

	report, err := pipeline.ImportOFX(context.Background(), strings.NewReader("\n\n  "+testBankOFX))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Inserted)
}
