/*
Package ports defines the interfaces between the mender orchestrator and its collaborators.

These interfaces decouple the state machine from the decision maker, the
infrastructure it operates on and the places its results end up.

# Key Interfaces

  - DecisionDelegate: produces the next planning decision from a context.
  - SystemOperations: failure detection, impact estimation and crew assignment.
  - SystemRepository / AgentRepository: inventories behind the domain tools.
  - ReportStore: archive of finished run reports.
  - DistributedLocker: serializes stepping of one run across replicas.
*/
package ports
