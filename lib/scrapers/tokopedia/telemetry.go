package tokopedia

import (
	"tokoscrape-backend/lib/restyutil"
	"tokoscrape-backend/lib/telemetry"
)

var tracer = telemetry.Tracer("tokoscrape.lib.scrapers.tokopedia")
var restyInstrumentOutput restyutil.InstrumentOutput

func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}
