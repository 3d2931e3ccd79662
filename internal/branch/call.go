package branch

// DeviatingFuncs lists functions that never return to their caller,
// keyed by symbol id. Methods are keyed by the declared type of their
// receiver, so "testing.T.Fatal" matches t.Fatal on a t *testing.T.
var DeviatingFuncs = map[string]BranchKind{
	"os.Exit":                              Exit,
	"log.Fatal":                            Exit,
	"log.Fatalf":                           Exit,
	"log.Fatalln":                          Exit,
	"log.Logger.Fatal":                     Exit,
	"log.Logger.Fatalf":                    Exit,
	"log.Logger.Fatalln":                   Exit,
	"runtime.Goexit":                       Exit,
	"go.uber.org/zap.Logger.Fatal":         Exit,
	"go.uber.org/zap.SugaredLogger.Fatal":  Exit,
	"go.uber.org/zap.SugaredLogger.Fatalf": Exit,
	"go.uber.org/zap.SugaredLogger.Fatalw": Exit,
	"panic":                                Panic,
	"log.Panic":                            Panic,
	"log.Panicf":                           Panic,
	"log.Panicln":                          Panic,
	"log.Logger.Panic":                     Panic,
	"log.Logger.Panicf":                    Panic,
	"log.Logger.Panicln":                   Panic,
	"go.uber.org/zap.Logger.Panic":         Panic,
	"go.uber.org/zap.SugaredLogger.Panic":  Panic,
	"go.uber.org/zap.SugaredLogger.Panicf": Panic,
	"go.uber.org/zap.SugaredLogger.Panicw": Panic,
}

// testingTypes are the receivers of the testing helpers that stop the
// running test. testing.common is where the methods are declared when
// the package is fully type-checked.
var testingTypes = []string{"testing.common", "testing.T", "testing.B", "testing.F", "testing.TB"}

func init() {
	for _, recv := range testingTypes {
		for _, method := range []string{"FailNow", "Fatal", "Fatalf", "SkipNow", "Skip", "Skipf"} {
			DeviatingFuncs[recv+"."+method] = Exit
		}
	}
}

// Lookup reports whether the function with the given id deviates.
func Lookup(id string) (BranchKind, bool) {
	kind, ok := DeviatingFuncs[id]
	return kind, ok
}
