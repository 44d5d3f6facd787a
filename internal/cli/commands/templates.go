package commands

// Starter files written by `starlift init`.

const starterConfig = `# starlift configuration
root: .
rules: configs/star_rules.json
predicates: configs/predicates.star

state_driver: sqlite
state_path: .starlift/state.db
# state_driver: postgres
# state_dsn: postgres://localhost/starlift

reports_dir: reports

exclude:
  - "**/node_modules/**"
  - "**/.venv/**"

# audit:
#   disabled: [SL10]
#   severity:
#     SL08: warning
#   max_todos_per_module: 5
#   max_suppressions_per_module: 0
`

const starterRules = `{
  "version": 1,
  "confidence_threshold": 0.70,
  "promotion_margin": 0.10,
  "stars": [
    {
      "name": "memory",
      "root": "stars/memory",
      "description": "Memory formation and recall"
    },
    {
      "name": "vision",
      "root": "stars/vision",
      "description": "Visual perception pipeline"
    }
  ],
  "rules": [
    {
      "id": "MEM-PATH-01",
      "star": "memory",
      "signal": "path",
      "pattern": "^lukhas/memory/",
      "weight": 0.4
    },
    {
      "id": "MEM-CAP-01",
      "star": "memory",
      "signal": "capability",
      "pattern": "fold",
      "weight": 0.6
    },
    {
      "id": "VIS-CAP-01",
      "star": "vision",
      "signal": "capability",
      "pattern": "vision_core",
      "weight": 0.6,
      "override": true,
      "reason": "vision_core is the defining capability of the vision star"
    },
    {
      "id": "MEM-PRED-01",
      "star": "memory",
      "signal": "predicate",
      "function": "handles_dreams",
      "weight": 0.6
    }
  ]
}
`

const starterPredicates = `# Starlark predicates referenced by rules with kind "predicate".
# Each function takes a module and returns a bool.

def handles_dreams(module):
    return "dream_recall" in module.capabilities

def is_large(module):
    return module.line_count > 5000
`
