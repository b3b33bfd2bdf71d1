package align

// englishStopwords mirrors the common english stop-word list used during
// vectorization. Terms here never enter the vector space vocabulary.
var englishStopwords = map[string]struct{}{}

func init() {
	words := []string{
		"about", "above", "across", "after", "afterwards", "again", "against",
		"all", "almost", "alone", "along", "already", "also", "although",
		"always", "among", "amongst", "amount", "and", "another", "any",
		"anyhow", "anyone", "anything", "anyway", "anywhere", "are", "around",
		"back", "became", "because", "become", "becomes", "becoming", "been",
		"before", "beforehand", "behind", "being", "below", "beside",
		"besides", "between", "beyond", "both", "bottom", "but", "call",
		"can", "cannot", "could", "does", "done", "down", "during", "each",
		"eight", "either", "eleven", "else", "elsewhere", "empty", "enough",
		"etc", "even", "ever", "every", "everyone", "everything",
		"everywhere", "except", "few", "fifteen", "fifty", "fill", "find",
		"fire", "first", "five", "for", "former", "formerly", "forty",
		"found", "four", "from", "front", "full", "further", "get", "give",
		"had", "has", "have", "hence", "her", "here", "hereafter", "hereby",
		"herein", "hereupon", "hers", "herself", "him", "himself", "his",
		"how", "however", "hundred", "indeed", "interest", "into", "its",
		"itself", "keep", "last", "latter", "latterly", "least", "less",
		"made", "many", "may", "meanwhile", "might", "mine", "more",
		"moreover", "most", "mostly", "move", "much", "must", "myself",
		"name", "namely", "neither", "never", "nevertheless", "next", "nine",
		"nobody", "none", "noone", "nor", "not", "nothing", "now", "nowhere",
		"off", "often", "once", "one", "only", "onto", "other", "others",
		"otherwise", "our", "ours", "ourselves", "out", "over", "own",
		"part", "per", "perhaps", "please", "put", "rather", "same", "see",
		"seem", "seemed", "seeming", "seems", "serious", "several", "she",
		"should", "show", "side", "since", "six", "sixty", "some", "somehow",
		"someone", "something", "sometime", "sometimes", "somewhere", "still",
		"such", "take", "ten", "than", "that", "the", "their", "them",
		"themselves", "then", "thence", "there", "thereafter", "thereby",
		"therefore", "therein", "thereupon", "these", "they", "thick",
		"thin", "third", "this", "those", "though", "three", "through",
		"throughout", "thru", "thus", "together", "too", "top", "toward",
		"towards", "twelve", "twenty", "two", "under", "until", "upon",
		"very", "via", "was", "well", "were", "what", "whatever", "when",
		"whence", "whenever", "where", "whereafter", "whereas", "whereby",
		"wherein", "whereupon", "wherever", "whether", "which", "while",
		"whither", "who", "whoever", "whole", "whom", "whose", "why",
		"will", "with", "within", "without", "would", "yet", "you", "your",
		"yours", "yourself", "yourselves",
	}
	for _, w := range words {
		englishStopwords[w] = struct{}{}
	}
}

func isStopword(token string) bool {
	_, ok := englishStopwords[token]
	return ok
}
