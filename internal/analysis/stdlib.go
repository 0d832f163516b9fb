package analysis

// StdSymbol is a logical standard-library symbol: an opaque, comparable
// identifier plus the canonical header that provides it. Symbols with
// multiple legitimate providers carry only the canonical one.
type StdSymbol struct {
	Qualified string // e.g. "std::vector"
	Header    string // canonical header name, no brackets
}

// stdSymbols maps qualified names to their canonical providing header.
// The table is curated, not exhaustive: it covers the entities include
// analysis meets in ordinary code.
var stdSymbols = map[string]string{
	"std::array":         "array",
	"std::deque":         "deque",
	"std::forward_list":  "forward_list",
	"std::function":      "functional",
	"std::initializer_list": "initializer_list",
	"std::list":          "list",
	"std::map":           "map",
	"std::multimap":      "map",
	"std::multiset":      "set",
	"std::optional":      "optional",
	"std::pair":          "utility",
	"std::set":           "set",
	"std::shared_ptr":    "memory",
	"std::string":        "string",
	"std::string_view":   "string_view",
	"std::stringstream":  "sstream",
	"std::tuple":         "tuple",
	"std::unique_ptr":    "memory",
	"std::unordered_map": "unordered_map",
	"std::unordered_set": "unordered_set",
	"std::variant":       "variant",
	"std::vector":        "vector",

	"std::cerr": "iostream",
	"std::cin":  "iostream",
	"std::cout": "iostream",

	"std::make_pair":   "utility",
	"std::make_shared": "memory",
	"std::make_unique": "memory",
	"std::move":        "utility",
	"std::sort":        "algorithm",
	"std::swap":        "utility",

	// size_t has several legitimate providers; cstddef is canonical.
	"std::size_t":    "cstddef",
	"size_t":         "cstddef",
	"std::ptrdiff_t": "cstddef",
	"std::nullptr_t": "cstddef",

	"memcpy": "cstring",
	"memset": "cstring",
	"printf": "cstdio",
	"strlen": "cstring",
}

// stdHeaderNames is the set of recognized standard header spellings,
// used by the angle-include exclusion rule.
var stdHeaderNames = map[string]bool{
	"algorithm": true, "array": true, "atomic": true, "bitset": true,
	"cassert": true, "cctype": true, "cerrno": true, "cfloat": true,
	"chrono": true, "climits": true, "cmath": true, "condition_variable": true,
	"cstddef": true, "cstdint": true, "cstdio": true, "cstdlib": true,
	"cstring": true, "ctime": true, "deque": true, "exception": true,
	"filesystem": true, "forward_list": true, "fstream": true,
	"functional": true, "future": true, "initializer_list": true,
	"iomanip": true, "ios": true, "iosfwd": true, "iostream": true,
	"istream": true, "iterator": true, "limits": true, "list": true,
	"map": true, "memory": true, "mutex": true, "new": true,
	"numeric": true, "optional": true, "ostream": true, "queue": true,
	"random": true, "ratio": true, "regex": true, "set": true,
	"sstream": true, "stack": true, "stdexcept": true, "streambuf": true,
	"string": true, "string_view": true, "system_error": true,
	"thread": true, "tuple": true, "type_traits": true, "typeindex": true,
	"typeinfo": true, "unordered_map": true, "unordered_set": true,
	"utility": true, "variant": true, "vector": true,

	"assert.h": true, "ctype.h": true, "errno.h": true, "float.h": true,
	"limits.h": true, "math.h": true, "stdarg.h": true, "stdbool.h": true,
	"stddef.h": true, "stdint.h": true, "stdio.h": true, "stdlib.h": true,
	"string.h": true, "time.h": true,
}

// recognizeStd maps a scope-qualified declaration to a logical standard
// symbol, when it is one.
func recognizeStd(scope, name string) (StdSymbol, bool) {
	qual := name
	if scope != "" {
		qual = scope + "::" + name
	}
	if header, ok := stdSymbols[qual]; ok {
		return StdSymbol{Qualified: qual, Header: header}, true
	}
	return StdSymbol{}, false
}

// IsStdHeaderName reports whether spelling names a recognized standard
// header.
func IsStdHeaderName(spelling string) bool {
	return stdHeaderNames[spelling]
}
