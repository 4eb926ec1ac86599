// Package examples provides a starter document for every diagram type.
package examples

import (
	"github.com/hanhandi-git/flowchartRenderer/pkg/diagram"
	ferrors "github.com/hanhandi-git/flowchartRenderer/pkg/errors"
)

// Example is a starter document.
type Example struct {
	Type    diagram.DiagramType `json:"type"`
	Title   string              `json:"title"`
	Dialect diagram.Dialect     `json:"dialect"`
	Source  string              `json:"source"`
}

var sources = map[diagram.DiagramType]string{
	diagram.TypeFlowchart: `graph TD;
    A[Start] --> B[Process];
    B --> C{Condition};
    C -->|yes| D[Process 1];
    C -->|no| E[Process 2];
    D --> F[End];
    E --> F;
`,

	diagram.TypeSequence: `sequenceDiagram
    participant Browser
    participant Server
    participant Database

    Browser->>Server: Send request
    activate Server
    Server->>Database: Query data
    activate Database
    Database-->>Server: Return rows
    deactivate Database
    Server-->>Browser: Respond
    deactivate Server

    Note right of Browser: The user sees the result
`,

	diagram.TypeClass: `classDiagram
    class Animal {
      +String name
      +int age
      +makeSound() void
    }

    class Dog {
      +String breed
      +bark() void
    }

    class Cat {
      +String color
      +meow() void
    }

    Animal <|-- Dog
    Animal <|-- Cat

    note for Dog "A good friend"
`,

	diagram.TypeState: `stateDiagram-v2
    [*] --> Pending
    Pending --> Running: start
    Running --> Done: finish
    Running --> Cancelled: cancel
    Done --> [*]
    Cancelled --> [*]

    note right of Pending: initial state
    note right of Done: final state
    note right of Cancelled: final state
`,

	diagram.TypeER: `erDiagram
    CUSTOMER ||--o{ ORDER : "places"
    ORDER ||--|{ ORDER_ITEM : "contains"
    CUSTOMER {
      int id
      string name
      string email
    }
    ORDER {
      int id
      date created_at
      string status
    }
    ORDER_ITEM {
      int id
      int order_id
      int product_id
      int quantity
    }
`,

	diagram.TypeGantt: `gantt
    title Project plan
    dateFormat YYYY-MM-DD

    section Planning
    Requirements   :a1, 2023-01-01, 7d
    Design         :a2, after a1, 10d

    section Development
    Implementation :b1, after a2, 15d
    Unit tests     :b2, after b1, 5d

    section Testing
    Integration    :c1, after b2, 7d
    System tests   :c2, after c1, 7d

    section Release
    Deploy         :d1, after c2, 3d
    Training       :d2, after d1, 5d
`,

	diagram.TypePie: `pie
    title Traffic sources
    "Search" : 42.7
    "Direct" : 28.9
    "Social" : 18.6
    "Email" : 5.3
    "Other" : 4.5
`,

	diagram.TypeGraphviz: `digraph G {
    start [label="Start", shape=box];
    process [label="Process", shape=box];
    decision [label="Condition", shape=diamond];
    process1 [label="Process 1", shape=box];
    process2 [label="Process 2", shape=box];
    end [label="End", shape=box];

    start -> process;
    process -> decision;
    decision -> process1 [label="yes"];
    decision -> process2 [label="no"];
    process1 -> end;
    process2 -> end;
}
`,
}

// Get returns the example for t.
func Get(t diagram.DiagramType) (Example, error) {
	src, ok := sources[t]
	if !ok {
		return Example{}, ferrors.New(ferrors.ErrCodeNotFound, "no example for diagram type %q", t)
	}
	return Example{Type: t, Title: t.Title(), Dialect: t.Dialect(), Source: src}, nil
}

// Lookup parses name as a diagram type and returns its example.
func Lookup(name string) (Example, error) {
	t, err := diagram.ParseDiagramType(name)
	if err != nil {
		return Example{}, err
	}
	return Get(t)
}

// All returns every example in [diagram.DiagramTypes] order.
func All() []Example {
	out := make([]Example, 0, len(sources))
	for _, t := range diagram.DiagramTypes() {
		if ex, err := Get(t); err == nil {
			out = append(out, ex)
		}
	}
	return out
}

// Default is the document a new editor opens with.
func Default() Example {
	ex, _ := Get(diagram.TypeFlowchart)
	return ex
}
