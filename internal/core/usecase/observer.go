package usecase

// TurnObserver receives pipeline events while a chat turn runs. Implementations
// must be safe for concurrent use; every hook is called on the turn's goroutine.
type TurnObserver interface {
	SubTaskRouted(intent string)
	RouterFallback()
	Retrieval(collection string, resultCount int)
	StructuredFailure()
}

type nopObserver struct{}

func (nopObserver) SubTaskRouted(string)  {}
func (nopObserver) RouterFallback()       {}
func (nopObserver) Retrieval(string, int) {}
func (nopObserver) StructuredFailure()    {}
