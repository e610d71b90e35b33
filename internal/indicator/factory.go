package indicator

import (
	"strconv"
	"strings"
)

// SeriesInput bundles the aligned input series an indicator may draw
// from. Close is always required; High, Low and Volume only for the
// kinds that use them.
type SeriesInput struct {
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// outputOrder maps an indicator kind (its Name) to the order in which
// Next returns its values, matching the keys of Values.
var outputOrder = map[string][]string{
	"sma":        {"sma"},
	"csma":       {"csma"},
	"ewma":       {"ewma"},
	"dema":       {"dema"},
	"tema":       {"tema"},
	"smd":        {"smd"},
	"smstd":      {"smstd"},
	"alma":       {"alma"},
	"vwap":       {"vwap"},
	"rsiwilder":  {"rsi"},
	"rsicutler":  {"rsi"},
	"macd":       {"macd", "signal", "hist"},
	"stochastic": {"pd", "pdslow"},
	"tsi":        {"tsi"},
	"cci":        {"cci"},
	"aroon":      {"up", "down", "aroon"},
	"mfi":        {"mfi"},
	"fi":         {"fi"},
	"fielder":    {"fielder"},
	"bollinger":  {"high", "mean", "low", "bperc", "width"},
	"donchian":   {"high", "mean", "low"},
	"tr":         {"tr"},
	"atr":        {"atr"},
	"adx":        {"plusdi", "minusdi", "adx"},
}

// OutputNames returns the ordered output names of an indicator kind,
// aligned with the value slice Next returns. Unknown kinds yield nil.
func OutputNames(kind string) []string {
	return outputOrder[kind]
}

// Label returns the canonical result name for a spec: lower-cased
// with windows joined by underscores, e.g. "SMA:10" -> "sma_10".
// Results of the same kind over different windows stay distinct in
// the stores under this name.
func Label(spec string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(spec), ":", "_"))
}

// Build constructs an indicator from a textual spec of the form
// "kind", "kind:w" or "kind:w1:w2:...". Windows beyond the first are
// optional and fall back to the conventional defaults, e.g.
// "macd:26" means "macd:26:12:9". Kind matching is case-insensitive.
func Build(spec string, in SeriesInput, mode Mode) (Indicator, error) {
	parts := strings.Split(strings.TrimSpace(spec), ":")
	kind := strings.ToLower(parts[0])
	if kind == "" {
		return nil, errDomainf("factory", "empty indicator spec")
	}

	args := make([]int, 0, len(parts)-1)
	for _, p := range parts[1:] {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, errDomainf("factory", "spec %q: bad window %q", spec, p)
		}
		args = append(args, n)
	}

	// arg returns the i-th window, or def when the spec omits it.
	arg := func(i, def int) int {
		if i < len(args) {
			return args[i]
		}
		return def
	}

	needWindow := func() (int, error) {
		if len(args) == 0 {
			return 0, errDomainf("factory", "spec %q: kind %s requires a window", spec, kind)
		}
		return args[0], nil
	}

	switch kind {
	case "sma":
		w, err := needWindow()
		if err != nil {
			return nil, err
		}
		return NewSma(in.Close, mode, w)
	case "csma":
		return NewCsma(in.Close, mode)
	case "ewma":
		w, err := needWindow()
		if err != nil {
			return nil, err
		}
		return NewEwma(in.Close, mode, w)
	case "dema":
		w, err := needWindow()
		if err != nil {
			return nil, err
		}
		return NewDema(in.Close, mode, w)
	case "tema":
		w, err := needWindow()
		if err != nil {
			return nil, err
		}
		return NewTema(in.Close, mode, w)
	case "smd":
		w, err := needWindow()
		if err != nil {
			return nil, err
		}
		return NewSmd(in.Close, mode, w)
	case "smstd":
		w, err := needWindow()
		if err != nil {
			return nil, err
		}
		return NewSmstd(in.Close, mode, w, arg(1, 1))
	case "alma":
		w, err := needWindow()
		if err != nil {
			return nil, err
		}
		return NewAlma(in.Close, mode, w)
	case "vwap":
		w, err := needWindow()
		if err != nil {
			return nil, err
		}
		return NewVwap(in.Close, in.Volume, mode, w)

	case "rsiwilder", "rsi":
		return NewRsiWilder(in.Close, mode, arg(0, 14))
	case "rsicutler":
		return NewRsiCutler(in.Close, mode, arg(0, 14))
	case "macd":
		return NewMacd(in.Close, mode, arg(0, 26), arg(1, 12), arg(2, 9))
	case "stochastic":
		return NewStochastic(in.Close, mode, arg(0, 14), arg(1, 3), arg(2, 5))
	case "tsi":
		return NewTsi(in.Close, mode, arg(0, 25), arg(1, 13))
	case "cci":
		return NewCci(in.Close, mode, arg(0, 20))
	case "aroon":
		return NewAroon(in.Close, mode, arg(0, 14))
	case "mfi":
		return NewMfi(in.Close, in.Volume, mode, arg(0, 14))
	case "fi":
		return NewFi(in.Close, in.Volume, mode)
	case "fielder":
		return NewFiElder(in.Close, in.Volume, mode, arg(0, 13))

	case "bollinger":
		return NewBollinger(in.Close, mode, arg(0, 20), float64(arg(1, 2)))
	case "donchian":
		return NewDonchian(in.Close, mode, arg(0, 20), arg(1, 0))
	case "donchianhl":
		return NewDonchianHL(in.High, in.Low, mode, arg(0, 20), arg(1, 0))
	case "tr":
		return NewTr(in.Close, mode)
	case "trhlc":
		return NewTrHLC(in.High, in.Low, in.Close, mode)
	case "atr":
		return NewAtr(in.Close, mode, arg(0, 14))
	case "atrhlc":
		return NewAtrHLC(in.High, in.Low, in.Close, mode, arg(0, 14))
	case "adx":
		return NewAdx(in.High, in.Low, in.Close, mode, arg(0, 14))

	default:
		return nil, errDomainf("factory", "unknown indicator kind %q", kind)
	}
}
