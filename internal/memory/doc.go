// Package memory keeps the server inside its container memory budget.
//
// [ConfigureFromEnv] derives GOMEMLIMIT from MEMORY_LIMIT and MEMORY_RATIO
// when GOMEMLIMIT itself is not set:
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//	- name: MEMORY_RATIO
//	  value: "0.85"
//
// [Monitor] samples heap usage while indexing runs. Above the critical water
// mark it forces a GC and holds indexing workers in [Monitor.WaitIfPaused]
// until usage drops below the high water mark. Decoding large FLAC files on
// many workers at once is the usual trigger.
package memory
