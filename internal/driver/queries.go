package driver

// IndexQueries are applied by BuildIndices.
var IndexQueries = []string{
	"CREATE INDEX ON :Answer(id);",
	"CREATE INDEX ON :Answer(session_id);",
	"CREATE INDEX ON :Answer(category);",
}

const (
	SaveAnswerQuery = `
		MERGE (a:Answer {id: $id})
		SET a.text = $text,
			a.answer = $answer,
			a.category = $category,
			a.session_id = $session_id,
			a.created_at = $created_at
		RETURN a.id AS id
	`

	GetAnswerQuery = `
		MATCH (a:Answer {id: $id})
		RETURN a.id AS id, a.text AS text, a.answer AS answer, a.category AS category,
			a.session_id AS session_id, a.created_at AS created_at
	`

	ListAnswersQuery = `
		MATCH (a:Answer {session_id: $session_id})
		RETURN a.id AS id, a.text AS text, a.answer AS answer, a.category AS category,
			a.session_id AS session_id, a.created_at AS created_at
		ORDER BY a.created_at ASC
	`

	// Deleting the node removes every CONSISTENCY relationship touching it.
	DeleteAnswerQuery = `
		MATCH (a:Answer {id: $id})
		WITH a, a.id AS id
		DETACH DELETE a
		RETURN id
	`

	SaveEdgeQuery = `
		MATCH (source:Answer {id: $source_id})
		MATCH (target:Answer {id: $target_id})
		MERGE (source)-[e:CONSISTENCY {id: $id}]->(target)
		SET e.is_consistent = $is_consistent,
			e.explanation = $explanation,
			e.session_id = $session_id,
			e.created_at = $created_at
		RETURN e.id AS id
	`

	ListEdgesQuery = `
		MATCH (source:Answer)-[e:CONSISTENCY]->(target:Answer)
		WHERE e.session_id = $session_id
		RETURN e.id AS id, source.id AS source_id, target.id AS target_id,
			e.is_consistent AS is_consistent, e.explanation AS explanation,
			e.session_id AS session_id, e.created_at AS created_at
		ORDER BY e.created_at ASC
	`
)
