package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryResolvesCascadeOrder(t *testing.T) {
	t.Parallel()

	reg := DefaultRegistry(Options{EmphasisSelector: "b"})

	candidates, err := reg.CandidateFinders([]string{"selectors", "links"})
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "selectors", candidates[0].Name())
	assert.Equal(t, "links", candidates[1].Name())

	answers, err := reg.AnswerFinders([]string{"emphasis_in_document", "list_item"})
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.Equal(t, EmphasisFinder{Selector: "b"}, answers[0])
}

func TestRegistryRejectsUnknownStrategy(t *testing.T) {
	t.Parallel()

	reg := DefaultRegistry(Options{})

	_, err := reg.Build([]string{"links", "telepathy"}, []string{"list_item"}, Options{}, &stubFetcher{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telepathy")

	_, err = reg.Build([]string{"links"}, []string{"guess"}, Options{}, &stubFetcher{}, nil)
	require.Error(t, err)
}

func TestRegistryBuildsPipeline(t *testing.T) {
	t.Parallel()

	p, err := DefaultRegistry(Options{}).Build([]string{"links"}, []string{"list_item"}, Options{MinQuestionLength: 10, MaxOptionLength: 200}, &stubFetcher{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, p.Locator)
	assert.NotNil(t, p.Resolver)
}
